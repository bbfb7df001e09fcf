package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// taskRoles holds the IAM roles the ECS tasks run with.
type taskRoles struct {
	executionRole *iam.Role
	taskRole      *iam.Role
}

// createFlowLogRole creates the role the VPC flow log delivers with.
func createFlowLogRole(ctx *pulumi.Context, tier Tier, opts ...pulumi.ResourceOption) (*iam.Role, error) {
	role, err := iam.NewRole(ctx, resourceName(tier, "flow-log-role"), &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": "sts:AssumeRole",
				"Principal": {
					"Service": "vpc-flow-logs.amazonaws.com"
				},
				"Effect": "Allow",
				"Sid": ""
			}]
		}`),
		Tags: resourceTags(tier, resourceName(tier, "flow-log-role")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicy(ctx, resourceName(tier, "flow-log-policy"), &iam.RolePolicyArgs{
		Role: role.Name,
		Policy: pulumi.String(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": [
					"logs:CreateLogGroup",
					"logs:CreateLogStream",
					"logs:PutLogEvents",
					"logs:DescribeLogGroups",
					"logs:DescribeLogStreams"
				],
				"Effect": "Allow",
				"Resource": "*"
			}]
		}`),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return role, nil
}

// createTaskRoles creates the execution role (image pulls, log delivery)
// and the task role the application code assumes.
func createTaskRoles(ctx *pulumi.Context, tier Tier, opts ...pulumi.ResourceOption) (*taskRoles, error) {
	assumeECSTasks := pulumi.String(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Action": "sts:AssumeRole",
			"Principal": {
				"Service": "ecs-tasks.amazonaws.com"
			},
			"Effect": "Allow",
			"Sid": ""
		}]
	}`)

	// Create task execution role
	executionRole, err := iam.NewRole(ctx, resourceName(tier, "task-execution-role"), &iam.RoleArgs{
		AssumeRolePolicy: assumeECSTasks,
		Tags:             resourceTags(tier, resourceName(tier, "task-execution-role")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicyAttachment(ctx, resourceName(tier, "task-execution-policy"), &iam.RolePolicyAttachmentArgs{
		Role:      executionRole.Name,
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create task role
	taskRole, err := iam.NewRole(ctx, resourceName(tier, "task-role"), &iam.RoleArgs{
		AssumeRolePolicy: assumeECSTasks,
		Tags:             resourceTags(tier, resourceName(tier, "task-role")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicy(ctx, resourceName(tier, "task-role-policy"), &iam.RolePolicyArgs{
		Role: taskRole.Name,
		Policy: pulumi.String(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": [
					"cloudwatch:PutMetricData"
				],
				"Effect": "Allow",
				"Resource": "*"
			}]
		}`),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &taskRoles{
		executionRole: executionRole,
		taskRole:      taskRole,
	}, nil
}
