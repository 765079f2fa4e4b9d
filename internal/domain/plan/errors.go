package plan

import "errors"

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrFeatureNotFound      = errors.New("feature not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// Policy denials returned when a tenant's plan does not cover an action.
	// Rendered as upgrade prompts, distinct from plain validation errors.
	ErrStorageQuotaExceeded       = errors.New("storage quota exceeded for your current plan")
	ErrFileTooLarge               = errors.New("file exceeds the maximum size for your current plan")
	ErrFoldersNotAllowed          = errors.New("folders are not available on your current plan")
	ErrShareLinkLimitReached      = errors.New("active share link limit reached for your current plan")
	ErrShareExpirationTooLong     = errors.New("share link expiration exceeds your plan's maximum")
	ErrSharePasswordNotAllowed    = errors.New("password-protected links are not available on your current plan")
	ErrFolderSharingNotAllowed    = errors.New("folder sharing is not available on your current plan")
)

// LimitError carries usage context for a policy denial so the surface can
// render the current value, the plan limit and an upgrade suggestion.
type LimitError struct {
	Err       error
	Current   int64
	Limit     int64
	PlanID    ID
	UpgradeTo ID
}

func (e *LimitError) Error() string { return e.Err.Error() }
func (e *LimitError) Unwrap() error { return e.Err }

// IsPolicyDenial reports whether err belongs to the policy-denial category.
func IsPolicyDenial(err error) bool {
	for _, sentinel := range []error{
		ErrStorageQuotaExceeded,
		ErrFileTooLarge,
		ErrFoldersNotAllowed,
		ErrShareLinkLimitReached,
		ErrShareExpirationTooLong,
		ErrSharePasswordNotAllowed,
		ErrFolderSharingNotAllowed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// NextPlan suggests the tier above the current one for upgrade prompts.
func NextPlan(current ID) ID {
	switch current {
	case PlanFree:
		return PlanPlus
	case PlanPlus:
		return PlanBusiness
	default:
		return ""
	}
}
