// Package secrets stores named secret records for mailauth.
//
// A Secret is a name plus a free-form map of values. Token refresh events
// write the latest Token Record into the "token" value of a configured
// secret; everything else in the record belongs to whoever created it.
//
// Three backends implement Store:
//
//   - MemoryStore keeps secrets in process memory.
//   - FileStore keeps one JSON file per secret, mode 0600.
//   - RedisStore keeps one JSON value per secret under a key prefix.
//
// File and Redis stores can seal their payloads with AES-256-GCM through
// Encryption. Wrap any store with Instrument to get spans and metrics.
package secrets
