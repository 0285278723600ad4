// Package panel is the use-case layer: it orchestrates the auth state
// machine, the metadata cache and the vendor transport to serve
// status/arm/disarm requests, and keeps the audit log.
package panel
