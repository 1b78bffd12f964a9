package domain

// TokenKind tags a session token with the credentialing domain it
// belongs to. A token of one kind must never verify as the other.
type TokenKind string

const (
	KindStudent TokenKind = "student"
	KindAdmin   TokenKind = "admin"
)

// StudentPrincipal is the authenticated student reconstructed from a
// verified session token. It lives for a single request; subscription
// status is deliberately absent because it can change between token
// issuance and now, and must be re-read from the store.
type StudentPrincipal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Tier  Tier   `json:"tier"`
}

// AdminPrincipal is the authenticated admin reconstructed from a
// verified session token.
type AdminPrincipal struct {
	Role string `json:"role"`
}
