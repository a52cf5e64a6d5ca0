package domain

// RejectReason explains why a credential did not authenticate.
type RejectReason string

const (
	ReasonMissing        RejectReason = "missing"
	ReasonMalformed      RejectReason = "malformed"
	ReasonExpired        RejectReason = "expired"
	ReasonUnknownSubject RejectReason = "unknown-subject"
	ReasonUserNotFound   RejectReason = "user-not-found"
	ReasonInactive       RejectReason = "inactive"
	ReasonUnavailable    RejectReason = "unavailable"
)

// AuthResult is either Authenticated with an identity or Rejected with a reason.
type AuthResult struct {
	identity      UserID
	authenticated bool
	reason        RejectReason
}

func Authenticated(identity UserID) AuthResult {
	return AuthResult{identity: identity, authenticated: true}
}

func Rejected(reason RejectReason) AuthResult {
	return AuthResult{reason: reason}
}

// Identity returns the authenticated user. The boolean is false for a rejection.
func (r AuthResult) Identity() (UserID, bool) {
	return r.identity, r.authenticated
}

func (r AuthResult) Reason() RejectReason {
	return r.reason
}
