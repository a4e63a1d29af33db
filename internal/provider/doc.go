// Package provider holds the static OAuth2 configuration for the mailbox
// providers mailauth knows how to authenticate against.
//
// Two providers are supported:
//
//   - google: consumer mailboxes (Gmail). Endpoints are global.
//   - microsoft: enterprise mailboxes (Exchange Online). Endpoints are scoped
//     to an Azure AD tenant through the {tenant} placeholder, which defaults
//     to "common".
//
// The registry is immutable after construction and performs no I/O.
package provider
