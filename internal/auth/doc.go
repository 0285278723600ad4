// Package auth implements the login state machine: credential
// submission, the device-authorization / OTP flow, session ownership and
// persistence. It is the only component that mutates the Session.
package auth
