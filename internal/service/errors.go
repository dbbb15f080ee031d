// Package service implements the business logic behind the credential and
// device-identity endpoints: account registration and login, device
// provisioning with exactly-once API-key issuance, and the idempotent
// system-account path shared with the pet importer.
package service

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// user, wrong password, empty stored hash. The caller deliberately cannot
	// tell which, so account existence is not enumerable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDeviceOwned is returned when a device exists and belongs to a
	// different account. A device's owner is immutable once set.
	ErrDeviceOwned = errors.New("device is owned by another user")

	// ErrAlreadyEnrolled is returned by the enroll path when a link already
	// exists for the (MAC, account) pair. Enroll always yields a fresh key or
	// this conflict, never a silent no-op.
	ErrAlreadyEnrolled = errors.New("already enrolled for this user")

	// ErrUnknownAccount is returned by enroll when the target account id does
	// not exist.
	ErrUnknownAccount = errors.New("unknown account")
)
