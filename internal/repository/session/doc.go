// Package session implements persistence for the vendor Session.
//
// The FileRepository stores and loads the session as JSON on disk and
// exposes a Repository interface that the auth manager depends on.
package session
