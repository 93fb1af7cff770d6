// Package storage persists resolved Telegram users so mention and login
// buttons can be built without a round trip to Telegram.
//
// The store is SQLite (modernc.org/sqlite, pure Go). Rows older than the
// configured TTL are ignored by lookups and removed by PruneExpired.
package storage
