// Package refresh persists refreshed OAuth2 tokens into a secret store.
//
// Bridge is the token-refresh handler: every refreshed Token Record
// replaces the "token" value of one named secret.
package refresh
