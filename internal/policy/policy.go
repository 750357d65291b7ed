// Package policy fetches a tenant's enforcement policy from the internal
// policy service. The gateway never caches the result: a fresh fetch per
// request means subscription and feature changes take effect immediately.
package policy

import "time"

// SubscriptionStatus is the tenant's billing lifecycle state.
type SubscriptionStatus string

const (
	SubscriptionActive SubscriptionStatus = "ACTIVE"
	SubscriptionGrace  SubscriptionStatus = "GRACE"
	SubscriptionLocked SubscriptionStatus = "LOCKED"
)

// EnforcementPolicy is the per-tenant policy the pipeline enforces.
// FeatureEnabled is populated only on feature-scoped fetches; GraceEndsAt
// only when the status is GRACE.
type EnforcementPolicy struct {
	AuthVersion        int                `json:"authVersion"`
	SystemReadOnly     bool               `json:"systemReadOnly"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	GraceEndsAt        *time.Time         `json:"graceEndsAt,omitempty"`
	FeatureEnabled     *bool              `json:"featureEnabled,omitempty"`
}
