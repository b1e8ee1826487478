package entity

import "errors"

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrPhoneAlreadyExists = errors.New("phone number already registered")
	ErrVersionConflict    = errors.New("stored version does not match")
)
