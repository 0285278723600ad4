// Package version exposes build metadata injected via ldflags and a
// reusable cobra `version` subcommand.
package version
