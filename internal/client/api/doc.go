// Package api is the HTTP client of the inventory backend.
//
// # Overview
//
// Every request the CLI makes goes through Client. The client:
//  1. resolves endpoint paths against the configured base URL;
//  2. attaches "Authorization: Bearer <token>" when its TokenSource has an
//     access token, plus an X-Request-ID that stays the same across a replay;
//  3. keeps a cookie jar so the HttpOnly refresh cookie set at login is sent
//     back to the refresh endpoint;
//  4. on a 401 runs the registered RefreshFunc once and replays the original
//     request with the new token. Concurrent 401s share a single refresh.
//     The refresh endpoint itself is never refreshed, and a request is never
//     replayed twice;
//  5. normalises list responses: a bare JSON array and a paginated
//     {"results": [...]} object both decode to a slice.
//
// # Error Handling
//
// Non-2xx responses become *APIError, which matches ErrUnauthorized,
// ErrForbidden and ErrNotFound with errors.Is. A request that never got a
// response becomes *ConnectionError, which matches ErrUnavailable.
package api
