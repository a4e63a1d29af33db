// Package logging provides structured logging utilities for mailauth.
//
// All logging goes through the standard library's slog package. This package
// centralizes attribute naming and the sanitization of sensitive values so
// that tokens, client secrets and mailbox addresses never reach log output.
//
// # Usage Patterns
//
// Scope a logger to a provider and operation:
//
//	logger := logging.WithProvider(slog.Default(), "microsoft")
//	logger.Info("token exchanged",
//	    logging.Operation("exchange"),
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Debug("built sasl string",
//	    logging.UserHash(username),
//	    slog.String("access_token", logging.SanitizeToken(token)))
package logging
