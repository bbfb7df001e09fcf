package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/ecr"
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// appResources holds the ECS web application and its load balancer.
type appResources struct {
	repository     *ecr.Repository
	cluster        *ecs.Cluster
	taskDefinition *ecs.TaskDefinition
	service        *ecs.Service
	loadBalancer   *lb.LoadBalancer
	targetGroup    *lb.TargetGroup
	listener       *lb.Listener
}

func (a *appResources) handles() []pulumi.Resource {
	return []pulumi.Resource{a.cluster, a.service, a.loadBalancer}
}

// createAppResources creates the ECR repository, ECS cluster, Fargate task
// definition and service, and the ALB fronting it.
func createAppResources(ctx *pulumi.Context, tier Tier, cfg VpcConfig, network *networkResources, security *securityResources, opts ...pulumi.ResourceOption) (*appResources, error) {
	// Create ECR repository for the application image
	repository, err := ecr.NewRepository(ctx, resourceName(tier, "app-repo"), &ecr.RepositoryArgs{
		Name: pulumi.String(resourceName(tier, "app")),
		ImageScanningConfiguration: &ecr.RepositoryImageScanningConfigurationArgs{
			ScanOnPush: pulumi.Bool(true),
		},
		ImageTagMutability: pulumi.String("MUTABLE"),
		Tags:               resourceTags(tier, resourceName(tier, "app-repo")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create ECS cluster with container insights
	cluster, err := ecs.NewCluster(ctx, clusterName(tier), &ecs.ClusterArgs{
		Name: pulumi.String(clusterName(tier)),
		Settings: ecs.ClusterSettingArray{
			&ecs.ClusterSettingArgs{
				Name:  pulumi.String("containerInsights"),
				Value: pulumi.String("enabled"),
			},
		},
		Tags: resourceTags(tier, clusterName(tier)),
	}, opts...)
	if err != nil {
		return nil, err
	}

	roles, err := createTaskRoles(ctx, tier, opts...)
	if err != nil {
		return nil, err
	}

	// Create Fargate task definition. The log group is owned by the
	// monitoring unit and addressed by its conventional name.
	taskDefinition, err := ecs.NewTaskDefinition(ctx, resourceName(tier, "app-task"), &ecs.TaskDefinitionArgs{
		Family:                  pulumi.String(resourceName(tier, "app")),
		Cpu:                     pulumi.String("256"),
		Memory:                  pulumi.String("512"),
		NetworkMode:             pulumi.String("awsvpc"),
		RequiresCompatibilities: pulumi.StringArray{pulumi.String("FARGATE")},
		ExecutionRoleArn:        roles.executionRole.Arn,
		TaskRoleArn:             roles.taskRole.Arn,
		ContainerDefinitions: pulumi.Sprintf(`[{
			"name": "app",
			"image": "%s:latest",
			"essential": true,
			"portMappings": [{
				"containerPort": %d,
				"protocol": "tcp"
			}],
			"logConfiguration": {
				"logDriver": "awslogs",
				"options": {
					"awslogs-group": "%s",
					"awslogs-region": "%s",
					"awslogs-stream-prefix": "app"
				}
			}
		}]`, repository.RepositoryUrl, appPort, appLogGroupName(tier), deployRegion()),
		Tags: resourceTags(tier, resourceName(tier, "app-task")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create the ALB in the public subnets
	loadBalancer, err := lb.NewLoadBalancer(ctx, resourceName(tier, "alb"), &lb.LoadBalancerArgs{
		Name:             pulumi.String(resourceName(tier, "alb")),
		Internal:         pulumi.Bool(false),
		LoadBalancerType: pulumi.String("application"),
		SecurityGroups:   pulumi.StringArray{security.albSecurityGroup.ID()},
		Subnets:          subnetIDArray(network.publicSubnets),
		// Access logs land in the monitoring unit's archive bucket,
		// addressed by its conventional name.
		AccessLogs: &lb.LoadBalancerAccessLogsArgs{
			Bucket:  pulumi.String(logArchiveBucketName(tier)),
			Prefix:  pulumi.String(albLogPrefix),
			Enabled: pulumi.Bool(true),
		},
		Tags: resourceTags(tier, resourceName(tier, "alb")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	targetGroup, err := lb.NewTargetGroup(ctx, resourceName(tier, "app-tg"), &lb.TargetGroupArgs{
		Name:       pulumi.String(resourceName(tier, "app-tg")),
		Port:       pulumi.Int(appPort),
		Protocol:   pulumi.String("HTTP"),
		TargetType: pulumi.String("ip"),
		VpcId:      network.vpc.ID(),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Path:    pulumi.String("/healthz"),
			Matcher: pulumi.String("200"),
		},
		Tags: resourceTags(tier, resourceName(tier, "app-tg")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	listener, err := lb.NewListener(ctx, resourceName(tier, "http-listener"), &lb.ListenerArgs{
		LoadBalancerArn: loadBalancer.Arn,
		Port:            pulumi.Int(80),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions: lb.ListenerDefaultActionArray{
			&lb.ListenerDefaultActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: targetGroup.Arn,
			},
		},
		Tags: resourceTags(tier, resourceName(tier, "http-listener")),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create the Fargate service in the private subnets. The listener must
	// exist before the service registers targets.
	service, err := ecs.NewService(ctx, serviceName(tier), &ecs.ServiceArgs{
		Name:           pulumi.String(serviceName(tier)),
		Cluster:        cluster.Arn,
		TaskDefinition: taskDefinition.Arn,
		DesiredCount:   pulumi.Int(cfg.AvailabilityZones),
		LaunchType:     pulumi.String("FARGATE"),
		NetworkConfiguration: &ecs.ServiceNetworkConfigurationArgs{
			Subnets:        subnetIDArray(network.privateSubnets),
			SecurityGroups: pulumi.StringArray{security.serviceSecurityGroup.ID()},
			AssignPublicIp: pulumi.Bool(false),
		},
		LoadBalancers: ecs.ServiceLoadBalancerArray{
			&ecs.ServiceLoadBalancerArgs{
				TargetGroupArn: targetGroup.Arn,
				ContainerName:  pulumi.String("app"),
				ContainerPort:  pulumi.Int(appPort),
			},
		},
		Tags: resourceTags(tier, serviceName(tier)),
	}, append(opts, pulumi.DependsOn([]pulumi.Resource{listener}))...)
	if err != nil {
		return nil, err
	}

	return &appResources{
		repository:     repository,
		cluster:        cluster,
		taskDefinition: taskDefinition,
		service:        service,
		loadBalancer:   loadBalancer,
		targetGroup:    targetGroup,
		listener:       listener,
	}, nil
}
