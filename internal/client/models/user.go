package models

// User is the authenticated account as reported by auth/login/, auth/register/
// and auth/user/.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Tokens is the credential part of a login or registration response. The
// refresh token travels in an HttpOnly cookie and is deliberately not mapped.
type Tokens struct {
	Access string `json:"access"`
}

// AuthResponse is the body of auth/login/ and auth/register/.
type AuthResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// Credentials is the body of auth/login/ and auth/register/. Email is only
// sent on registration.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}
