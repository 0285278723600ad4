// Package alarm holds the domain model shared by the authentication
// state machine, the cloud transport and the service layer: sessions,
// OTP challenges, installation metadata, command results and the error
// taxonomy callers branch on.
package alarm
