package domain

type DispatchOutcome string

const (
	// DispatchMatched means a registered account was found and holds a
	// pending invitation.
	DispatchMatched DispatchOutcome = "matched"
	// DispatchUnmatched means no account matched; the caller may fall back
	// to an external channel.
	DispatchUnmatched DispatchOutcome = "unmatched"
	// DispatchSkipped means the candidate is the sender.
	DispatchSkipped DispatchOutcome = "skipped"
	DispatchFailed  DispatchOutcome = "failed"
)

type DispatchResult struct {
	Candidate      Contact
	Outcome        DispatchOutcome
	AccountID      string
	NotificationID string
	Err            error
}
