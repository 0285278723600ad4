// Package events implements the append-only audit log of login and
// arm/disarm operations, backed by an embedded SQLite database.
package events
