// Package storage defines the shared key-value store a manager persists its
// state snapshot to, plus the envelope and sanitizing helpers used on both
// sides of the exchange.
//
// A Store only reads and writes opaque strings and reports changes to watched
// keys. Two implementations ship with the package:
//
//   - MemoryStore keeps values in process and notifies watchers synchronously.
//   - BoltStore keeps values in a bbolt file that several processes can open in
//     turn; watchers poll the key at a fixed interval.
//
// Data flow:
//
//	provider state -> Sanitize -> Envelope -> Store.Set
//	Store.Watch -> DecodeEnvelope -> subscriber SetState
//
// Exactly one provider writes a key; subscribers only read it.
package storage
