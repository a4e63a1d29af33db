// Package cmd implements the command-line interface for mailauth.
//
// This package provides the following commands:
//   - providers: List the supported OAuth2 providers
//   - url: Print the permission URL to open in a browser
//   - exchange: Exchange an authorization code for a token record
//   - sasl: Print the base64 XOAUTH2 string for IMAP/SMTP logins
//   - keygen: Generate a key for encrypted secret stores
//   - version: Display version information
//
// Every setting can be passed as a flag or as a MAILAUTH_* environment
// variable; flags win.
package cmd
