// Package auth implements the OAuth2 flow used to authenticate a mail client
// against the providers in the provider registry.
//
// A Helper builds consent URLs, exchanges authorization codes for Token
// records, normalizes provider-specific token shapes and produces the
// base64 XOAUTH2 SASL string that IMAP and SMTP servers accept as a login
// credential.
//
// Microsoft token responses do not carry an absolute expiry, so the helper
// reads the exp claim out of the access token (a JWT) and stores it as
// expires_at. The signature is not verified: the token came straight from
// the token endpoint over TLS and only its claims are needed.
//
// Google access tokens obtained for SASL strings are cached per client and
// refresh token until they expire. Whenever a network refresh happens, the
// configured TokenRefreshHandler receives the new Token record so it can be
// persisted.
package auth
