package claim

// Failure codes reported by the claims engine. Business-rule failures are
// accumulated and returned together so a reviewer sees every reason at
// once rather than fixing one only to discover another.
const (
	FailureCodeCoverageNotStarted        = "coverage_not_started"
	FailureCodeClaimWindowExpired        = "claim_window_expired"
	FailureCodeClaimLimitExceeded        = "claim_limit_exceeded"
	FailureCodeTransactionNotFound       = "transaction_not_found"
	FailureCodeTransactionAlreadyClaimed = "transaction_already_claimed"
	FailureCodeLinkedTransactionVoided   = "linked_transaction_voided"
	FailureCodeOwnershipMismatch         = "ownership_mismatch"
	FailureCodePaymentNotCurrent         = "payment_not_current"
	FailureCodePayoutCapExceeded         = "payout_cap_exceeded"
	FailureCodeEnrollmentNotActive       = "enrollment_not_active"
)

// DecisionFailure is a single actionable reason a decision cannot proceed
type DecisionFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecisionFailures is the structured list returned to the reviewing actor
type DecisionFailures []DecisionFailure

func (f DecisionFailures) HasCode(code string) bool {
	for _, failure := range f {
		if failure.Code == code {
			return true
		}
	}
	return false
}

func (f DecisionFailures) IsEmpty() bool {
	return len(f) == 0
}
