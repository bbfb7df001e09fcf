package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlanEdges(t *testing.T) {
	t.Parallel()

	plan := defaultPlan()

	edges := make(map[string][]string, len(plan.units))
	for _, u := range plan.units {
		edges[u.name] = u.after
	}

	// Exactly these orderings and no others.
	assert.Empty(t, edges[unitNetwork])
	assert.Equal(t, []string{unitNetwork}, edges[unitSecurity])
	assert.Equal(t, []string{unitNetwork, unitSecurity}, edges[unitApplication])
	assert.Equal(t, []string{unitApplication}, edges[unitMonitoring])
	assert.Len(t, edges, 4)
}

func TestDefaultPlanOrder(t *testing.T) {
	t.Parallel()

	plan := defaultPlan()
	order, err := plan.order()
	require.NoError(t, err)
	require.Len(t, order, len(plan.units))

	position := make(map[string]int, len(order))
	for pos, i := range order {
		position[plan.units[i].name] = pos
	}

	for _, u := range plan.units {
		for _, a := range u.after {
			assert.Less(t, position[a], position[u.name],
				"%s must be built before %s", a, u.name)
		}
	}
}

func TestPlanOrderIsDeclarationStable(t *testing.T) {
	t.Parallel()

	plan := deployPlan{units: []deployUnit{
		{name: "a"},
		{name: "b"},
		{name: "c", after: []string{"a"}},
	}}
	order, err := plan.order()
	require.NoError(t, err)
	// Independent units keep their declaration order.
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestPlanRejectsUnknownEdge(t *testing.T) {
	t.Parallel()

	plan := deployPlan{units: []deployUnit{
		{name: "a", after: []string{"ghost"}},
	}}
	_, err := plan.order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestPlanRejectsDuplicateUnits(t *testing.T) {
	t.Parallel()

	plan := deployPlan{units: []deployUnit{
		{name: "a"},
		{name: "a"},
	}}
	_, err := plan.order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestPlanRejectsCycle(t *testing.T) {
	t.Parallel()

	plan := deployPlan{units: []deployUnit{
		{name: "a", after: []string{"b"}},
		{name: "b", after: []string{"a"}},
	}}
	_, err := plan.order()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
