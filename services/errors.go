package services

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrScanLocked  = errors.New("scan already recorded, wait a moment before scanning again")
	ErrUnknownCode = errors.New("QR code not recognized")

	ErrNotEditable       = errors.New("report can only be changed while in Draft")
	ErrInvalidTransition = errors.New("report is not in a state that allows this action")
	ErrIncomplete        = errors.New("report is incomplete")

	ErrDuplicateLabel     = errors.New("a QR code with this label already exists for the location")
	ErrDuplicateCodeValue = errors.New("a QR code with this value already exists")
	ErrDuplicateEmail     = errors.New("email is already in use")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("account is inactive")
	ErrInvalidInvite      = errors.New("invite is invalid or expired")
	ErrInvalidLink        = errors.New("sign-in link is invalid, expired or already used")
)
