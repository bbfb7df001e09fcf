package main

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"go.uber.org/zap"
)

// Unit names used by the default plan.
const (
	unitNetwork     = "network"
	unitSecurity    = "security"
	unitMonitoring  = "monitoring"
	unitApplication = "application"
)

// stackState carries the resolved tier configuration into the unit builders
// and collects the handles each unit produces. Handles are written once by
// the producing unit and only read by later units.
type stackState struct {
	tier          Tier
	vpcConfig     VpcConfig
	retentionDays int

	network    *networkResources
	security   *securityResources
	app        *appResources
	monitoring *monitoringResources
}

// deployUnit is one node of the deployment plan. The after list names the
// units that must be built before this one; the driver turns those edges
// into DependsOn options.
type deployUnit struct {
	name  string
	after []string
	build func(ctx *pulumi.Context, st *stackState, opts ...pulumi.ResourceOption) ([]pulumi.Resource, error)
}

// deployPlan is the composition expressed as data so the ordering can be
// inspected and tested without provisioning anything.
type deployPlan struct {
	units []deployUnit
}

// defaultPlan declares the platform's deployment units and their precedence
// edges: network before security, both before the application, and
// monitoring after the application. Monitoring consumes no handles; its
// edge is pure ordering.
func defaultPlan() deployPlan {
	return deployPlan{units: []deployUnit{
		{
			name: unitNetwork,
			build: func(ctx *pulumi.Context, st *stackState, opts ...pulumi.ResourceOption) ([]pulumi.Resource, error) {
				net, err := createNetworkResources(ctx, st.tier, st.vpcConfig, st.retentionDays, opts...)
				if err != nil {
					return nil, err
				}
				st.network = net
				return net.handles(), nil
			},
		},
		{
			name:  unitSecurity,
			after: []string{unitNetwork},
			build: func(ctx *pulumi.Context, st *stackState, opts ...pulumi.ResourceOption) ([]pulumi.Resource, error) {
				sec, err := createSecurityResources(ctx, st.tier, st.network.vpc.ID(), opts...)
				if err != nil {
					return nil, err
				}
				st.security = sec
				return sec.handles(), nil
			},
		},
		{
			name:  unitApplication,
			after: []string{unitNetwork, unitSecurity},
			build: func(ctx *pulumi.Context, st *stackState, opts ...pulumi.ResourceOption) ([]pulumi.Resource, error) {
				app, err := createAppResources(ctx, st.tier, st.vpcConfig, st.network, st.security, opts...)
				if err != nil {
					return nil, err
				}
				st.app = app
				return app.handles(), nil
			},
		},
		{
			name:  unitMonitoring,
			after: []string{unitApplication},
			build: func(ctx *pulumi.Context, st *stackState, opts ...pulumi.ResourceOption) ([]pulumi.Resource, error) {
				mon, err := createMonitoringResources(ctx, st.tier, st.retentionDays, opts...)
				if err != nil {
					return nil, err
				}
				st.monitoring = mon
				return mon.handles(), nil
			},
		},
	}}
}

// validate rejects duplicate unit names and edges that reference unknown
// units. Cycles are reported by order.
func (p deployPlan) validate() error {
	seen := make(map[string]bool, len(p.units))
	for _, u := range p.units {
		if seen[u.name] {
			return fmt.Errorf("duplicate deployment unit %q", u.name)
		}
		seen[u.name] = true
	}
	for _, u := range p.units {
		for _, a := range u.after {
			if !seen[a] {
				return fmt.Errorf("unit %q depends on unknown unit %q", u.name, a)
			}
		}
	}
	return nil
}

// order returns unit indices in a topological order that is stable with
// respect to declaration order.
func (p deployPlan) order() ([]int, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	indegree := make(map[string]int, len(p.units))
	for _, u := range p.units {
		indegree[u.name] = len(u.after)
	}

	order := make([]int, 0, len(p.units))
	placed := make(map[string]bool, len(p.units))
	for len(order) < len(p.units) {
		progressed := false
		for i, u := range p.units {
			if placed[u.name] || indegree[u.name] != 0 {
				continue
			}
			order = append(order, i)
			placed[u.name] = true
			for _, v := range p.units {
				for _, a := range v.after {
					if a == u.name {
						indegree[v.name]--
					}
				}
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, u := range p.units {
				if !placed[u.name] {
					stuck = append(stuck, u.name)
				}
			}
			return nil, fmt.Errorf("dependency cycle among units %v", stuck)
		}
	}
	return order, nil
}

// run walks the plan, building each unit with DependsOn options derived from
// its precedence edges.
func (p deployPlan) run(ctx *pulumi.Context, logger *zap.Logger, st *stackState) error {
	order, err := p.order()
	if err != nil {
		return err
	}

	built := make(map[string][]pulumi.Resource, len(p.units))
	for _, i := range order {
		u := p.units[i]
		var deps []pulumi.Resource
		for _, a := range u.after {
			deps = append(deps, built[a]...)
		}
		var opts []pulumi.ResourceOption
		if len(deps) > 0 {
			opts = append(opts, pulumi.DependsOn(deps))
		}

		logger.Info("building deployment unit",
			zap.String("unit", u.name),
			zap.String("tier", string(st.tier)),
			zap.Strings("after", u.after))

		handles, err := u.build(ctx, st, opts...)
		if err != nil {
			return fmt.Errorf("unit %q: %w", u.name, err)
		}
		built[u.name] = handles
	}
	return nil
}
