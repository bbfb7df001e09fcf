package main

import (
	"fmt"
	"os"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"go.uber.org/zap"
)

// Tier identifies a deployment environment.
type Tier string

const (
	TierDev     Tier = "dev"
	TierStaging Tier = "staging"
	TierProd    Tier = "prod"
)

// defaultTier is what unrecognized tier names resolve to.
const defaultTier = TierDev

// VpcConfig holds the network sizing for one tier.
type VpcConfig struct {
	AvailabilityZones int
	CidrBlock         string
	NatGateways       int
}

// vpcConfigs maps each tier to its network sizing. Address blocks must not
// overlap across tiers.
var vpcConfigs = map[Tier]VpcConfig{
	TierDev:     {AvailabilityZones: 2, CidrBlock: "10.0.0.0/16", NatGateways: 1},
	TierStaging: {AvailabilityZones: 2, CidrBlock: "10.1.0.0/16", NatGateways: 1},
	TierProd:    {AvailabilityZones: 3, CidrBlock: "10.2.0.0/16", NatGateways: 3},
}

// logRetentionDays maps each tier to its CloudWatch log retention bucket.
var logRetentionDays = map[Tier]int{
	TierDev:     7,
	TierStaging: 14,
	TierProd:    30,
}

// lookupOrDefault returns the table entry for tier, or the defaultTier entry
// when tier is not in the table. The second return reports whether the
// fallback was taken.
func lookupOrDefault[V any](table map[Tier]V, tier Tier) (V, bool) {
	if v, ok := table[tier]; ok {
		return v, false
	}
	return table[defaultTier], true
}

// resolveVpcConfig looks up the network sizing for tier, falling back to the
// dev entry for unrecognized tiers. The fallback keeps the returned value
// identical to an explicit dev request; it only adds a warning.
func resolveVpcConfig(logger *zap.Logger, table map[Tier]VpcConfig, tier Tier) VpcConfig {
	cfg, fellBack := lookupOrDefault(table, tier)
	if fellBack {
		logger.Warn("unrecognized environment tier, using default network sizing",
			zap.String("tier", string(tier)),
			zap.String("default", string(defaultTier)))
	}
	return cfg
}

// resolveLogRetention looks up the log retention for tier with the same
// fallback policy as resolveVpcConfig.
func resolveLogRetention(logger *zap.Logger, table map[Tier]int, tier Tier) int {
	days, fellBack := lookupOrDefault(table, tier)
	if fellBack {
		logger.Warn("unrecognized environment tier, using default log retention",
			zap.String("tier", string(tier)),
			zap.String("default", string(defaultTier)))
	}
	return days
}

const (
	accountEnv         = "PLATFORM_ACCOUNT"
	accountFallbackEnv = "AWS_ACCOUNT_ID"
	regionEnv          = "PLATFORM_REGION"
	regionFallbackEnv  = "AWS_REGION"
	defaultRegion      = "us-east-1"
)

// envOr reads primary, falling back to fallback when primary is unset.
func envOr(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// accountID returns the target AWS account, or empty when neither variable
// is set (the provider then uses the caller's credentials).
func accountID() string {
	return envOr(accountEnv, accountFallbackEnv)
}

// deployRegion returns the target AWS region.
func deployRegion() string {
	if v := envOr(regionEnv, regionFallbackEnv); v != "" {
		return v
	}
	return defaultRegion
}

// staticTags is the fixed bundle applied to every provisioned resource.
var staticTags = map[string]string{
	"Project":    "ecs-webapp-platform",
	"Owner":      "platform-team",
	"Purpose":    "portfolio",
	"Repository": "https://github.com/ecs-webapp-platform/infrastructure",
	"ManagedBy":  "pulumi",
}

// tierTags merges the static bundle with the per-tier tags. Production
// additionally carries the backup marker. Each call returns a fresh map.
func tierTags(tier Tier) map[string]string {
	tags := make(map[string]string, len(staticTags)+3)
	for k, v := range staticTags {
		tags[k] = v
	}
	tags["Environment"] = string(tier)
	tags["CostCenter"] = "platform-" + string(tier)
	if tier == TierProd {
		tags["Backup"] = "required"
	}
	return tags
}

// resourceTags builds the Pulumi tag map for one named resource.
func resourceTags(tier Tier, name string) pulumi.StringMap {
	tags := pulumi.StringMap{}
	for k, v := range tierTags(tier) {
		tags[k] = pulumi.String(v)
	}
	tags["Name"] = pulumi.String(name)
	return tags
}

// Naming conventions shared between units. The monitoring unit addresses the
// application's resources through these names instead of handles.
func resourceName(tier Tier, suffix string) string {
	return fmt.Sprintf("%s-%s", tier, suffix)
}

func clusterName(tier Tier) string {
	return resourceName(tier, "cluster")
}

func serviceName(tier Tier) string {
	return resourceName(tier, "web")
}

func appLogGroupName(tier Tier) string {
	return fmt.Sprintf("/ecs/%s-app", tier)
}

func logArchiveBucketName(tier Tier) string {
	return fmt.Sprintf("%s-webapp-platform-log-archive", tier)
}

// albLogPrefix is the key prefix the ALB delivers access logs under.
const albLogPrefix = "alb"
