package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mastry/crm-backend/internal/entity"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
}

// commonTypos maps frequent email-domain misspellings to the intended
// domain; used for warnings, not rejections.
var commonTypos = map[string]string{
	"gmial.com":   "gmail.com",
	"gmai.com":    "gmail.com",
	"yahooo.com":  "yahoo.com",
	"hotmial.com": "hotmail.com",
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(input.FirstName) == "" {
		errs = append(errs, ValidationError{"first_name", "is required"})
	}
	if strings.TrimSpace(input.LastName) == "" {
		errs = append(errs, ValidationError{"last_name", "is required"})
	}
	if strings.TrimSpace(input.PhoneRaw) == "" {
		errs = append(errs, ValidationError{"phone_raw", "is required"})
	}
	if input.Email != "" {
		if err := validateEmailAddress(input.Email); err != "" {
			errs = append(errs, ValidationError{"email", err})
		}
	}

	return errs
}

func validateEmailAddress(email string) string {
	if _, err := mail.ParseAddress(email); err != nil {
		return "is invalid"
	}
	parts := strings.SplitN(email, "@", 2)
	if len(parts) == 2 && disposableDomains[strings.ToLower(parts[1])] {
		return "disposable email addresses not allowed"
	}
	return ""
}

// EmailWarning suggests a correction for a likely domain typo. Empty when
// nothing looks off.
func EmailWarning(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	if fixed, ok := commonTypos[strings.ToLower(parts[1])]; ok {
		return fmt.Sprintf("Did you mean %s@%s?", parts[0], fixed)
	}
	return ""
}

var nameDisallowed = regexp.MustCompile(`[^\p{L}\s\-']`)

// SanitizeName strips everything that is not a letter, space, hyphen or
// apostrophe.
func SanitizeName(name string) string {
	return strings.TrimSpace(nameDisallowed.ReplaceAllString(name, ""))
}

// validateStatusWrite enforces the data preconditions of the target stage
// before any mutation happens: payment-gated stages need payment details in
// the same logical operation (or already on the record), rejection-like
// stages need a non-empty reason.
func validateStatusWrite(old *entity.Lead, newStatus string, updates UpdateLeadInput) error {
	def, ok := entity.FindStatus(newStatus)
	if !ok {
		return &DomainError{Code: CodeValidation, Message: fmt.Sprintf("unknown status %q", newStatus)}
	}

	if def.RequiresPayment && updates.PaymentDetails == nil && old.PaymentDetails == nil {
		return &DomainError{
			Code:    CodeValidation,
			Message: fmt.Sprintf("status %q requires payment details", newStatus),
		}
	}

	if def.RequiresRejectionReason {
		reason := old.RejectionReason
		if updates.RejectionReason != nil {
			reason = *updates.RejectionReason
		}
		if strings.TrimSpace(reason) == "" {
			return &DomainError{
				Code:    CodeValidation,
				Message: fmt.Sprintf("status %q requires a rejection reason", newStatus),
			}
		}
	}

	return nil
}
