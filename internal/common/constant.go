// Package common contains constants and helpers shared by the stockkeeper
// client packages.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName correlates one logical request, including its replay
	// after a token refresh, in client and server logs.
	RequestIDHeaderName = "X-Request-ID"

	// RefreshCookieName is the HttpOnly cookie the backend uses to carry the
	// refresh token. Client code never reads it; the cookie jar replays it.
	RefreshCookieName = "refresh_token"

	// TokensMetadataKey is the durable-storage key of the persisted token blob.
	TokensMetadataKey = "tokens"
)
