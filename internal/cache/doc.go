// Package cache implements the TTL-keyed store for installation
// service metadata, saving repeated vendor round-trips for data that
// changes rarely.
package cache
