// Package logger wraps zap with a process-wide sugared logger and
// context plumbing so call sites can log without threading a logger
// through every constructor.
package logger
