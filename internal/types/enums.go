package types

// Role values, most privileged first.
const (
	RoleOwner      = "OWNER"
	RoleAdmin      = "ADMIN"
	RoleInstructor = "INSTRUCTOR"
	RoleLearner    = "LEARNER"
)

// RoleAtLeast reports whether role carries at least the privilege of min.
func RoleAtLeast(role, min string) bool {
	rank := map[string]int{RoleOwner: 3, RoleAdmin: 2, RoleInstructor: 1, RoleLearner: 0}
	r, ok := rank[role]
	if !ok {
		return false
	}
	m, ok := rank[min]
	if !ok {
		return false
	}
	return r >= m
}

// Subscription lifecycle.
const (
	SubscriptionTrial    = "TRIAL"
	SubscriptionActive   = "ACTIVE"
	SubscriptionPastDue  = "PAST_DUE"
	SubscriptionCanceled = "CANCELED"
	SubscriptionExpired  = "EXPIRED"
)

const (
	TierStarter      = "STARTER"
	TierProfessional = "PROFESSIONAL"
	TierEnterprise   = "ENTERPRISE"
)

// Book metadata domains.
var (
	BookDifficulties = []string{"BEGINNER", "INTERMEDIATE", "ADVANCED", "EXPERT"}
	BookCategories   = []string{
		"GENERAL", "DATA_SCIENCE", "WEB_DEVELOPMENT", "MACHINE_LEARNING",
		"HEALTHCARE", "FINANCE", "GEOSPATIAL", "AUTOMATION", "API_DEVELOPMENT",
	}
)

// Code execution outcomes.
const (
	ExecutionSuccess = "success"
	ExecutionError   = "error"
	ExecutionTimeout = "timeout"
)

// Billing event types.
const (
	BillingTrialStarted        = "TRIAL_STARTED"
	BillingCustomerCreated     = "CUSTOMER_CREATED"
	BillingSubscriptionUpdated = "SUBSCRIPTION_UPDATED"
	BillingPortalOpened        = "PORTAL_OPENED"
	BillingTrialWarning        = "TRIAL_WARNING"
)

func contains(domain []string, v string) bool {
	for _, d := range domain {
		if d == v {
			return true
		}
	}
	return false
}

func ValidDifficulty(v string) bool { return contains(BookDifficulties, v) }
func ValidCategory(v string) bool   { return contains(BookCategories, v) }
func ValidExecutionStatus(v string) bool {
	return v == ExecutionSuccess || v == ExecutionError || v == ExecutionTimeout
}
