package domain

// Step is the checkout session's position in the state machine.
type Step string

const (
	StepReview         Step = "REVIEW"
	StepBundleRequired Step = "BUNDLE_REQUIRED"
	StepShipping       Step = "SHIPPING"
	StepSubmitting     Step = "SUBMITTING"
	StepComplete       Step = "COMPLETE"
	StepFailed         Step = "FAILED"
)

// stepTransitions enumerates the legal moves of the checkout state machine.
// BundleRequired may re-enter itself: committing one bundle re-scans the cart
// and the next unresolved item becomes the new pending target.
var stepTransitions = map[Step][]Step{
	StepReview:         {StepBundleRequired, StepShipping},
	StepBundleRequired: {StepBundleRequired, StepShipping, StepReview},
	StepShipping:       {StepSubmitting},
	StepSubmitting:     {StepComplete, StepFailed, StepReview},
}

// CanTransition reports whether moving from one step to another is legal.
func CanTransition(from, to Step) bool {
	for _, next := range stepTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session cannot advance past this step.
func (s Step) IsTerminal() bool {
	return s == StepComplete || s == StepFailed
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}

// ShippingDetails is the delivery information collected during checkout.
// FullName, PhoneNumber and Address are required; City and State are not.
type ShippingDetails struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
}
