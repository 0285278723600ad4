// Package cloud implements the vendor security-cloud API client: login
// with the device-authorization flow, OTP dispatch and verification,
// installation metadata and arm/disarm commands. It maps wire failures
// onto the domain error taxonomy so callers can tell a connectivity
// problem from rejected credentials.
package cloud
