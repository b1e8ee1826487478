package usecase

import (
	"errors"
	"fmt"
)

// Error codes for DomainError.
const (
	CodeDuplicateLead  = "DUPLICATE_LEAD"
	CodeConflict       = "CONFLICT"
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeLastSuperAdmin = "LAST_SUPERADMIN"
)

// DomainError is a business-rule failure the caller is expected to handle
// (retry, merge, reload).
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// TechnicalError is an infrastructure failure (storage, broker).
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// AutomationError is a failed email/WhatsApp delivery. Retryable failures
// are safe to resubmit later; the rest need a configuration fix first.
type AutomationError struct {
	Channel   Channel
	Code      string
	Message   string
	Retryable bool
}

func (e *AutomationError) Error() string {
	label := "Email"
	if e.Channel == ChannelWhatsApp {
		label = "WhatsApp"
	}
	return fmt.Sprintf("%s Failed: %s", label, e.Message)
}
