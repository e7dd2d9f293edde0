package domain

// Decision is the transient outcome of an authorization check.
type Decision int

const (
	Authorized        Decision = iota
	Forbidden                  // valid credential, insufficient scope
	InvalidCredential          // missing, unknown, revoked or expired credential
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	default:
		return "invalid-credential"
	}
}

// Scopes understood by the authorization gate.
const (
	ScopeAdmin  = "admin"
	ScopeSubmit = "submit"
)
