package utils

import "github.com/pybook/pybook-backend/internal/types"

// SeatsForTier maps a subscription tier to its seat allowance.
func SeatsForTier(tier string) int {
	switch tier {
	case types.TierStarter:
		return 25
	case types.TierProfessional:
		return 500
	case types.TierEnterprise:
		return 999999
	default:
		return 25
	}
}
