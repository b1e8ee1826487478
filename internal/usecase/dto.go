package usecase

import "github.com/mastry/crm-backend/internal/entity"

type CreateLeadInput struct {
	FirstName     string                    `json:"first_name"`
	LastName      string                    `json:"last_name"`
	Email         string                    `json:"email"`
	CountryCode   string                    `json:"country_code"`
	PhoneRaw      string                    `json:"phone_raw"`
	Source        string                    `json:"source"`
	SourceDetails map[string]map[string]any `json:"source_details"`
	Tags          []string                  `json:"tags"`
	CustomFields  map[string]any            `json:"custom_fields"`
}

// UpdateLeadInput is a partial update: nil pointers (and nil slices/maps)
// mean "leave unchanged". ExpectedVersion, when set, must match the stored
// version or the update fails with CONFLICT.
type UpdateLeadInput struct {
	FirstName       *string                   `json:"first_name"`
	LastName        *string                   `json:"last_name"`
	Email           *string                   `json:"email"`
	Status          *string                   `json:"status"`
	RejectionReason *string                   `json:"rejection_reason"`
	AssignedTo      *string                   `json:"assigned_to"`
	Source          *string                   `json:"source"`
	Tags            []string                  `json:"tags"`
	CustomFields    map[string]any            `json:"custom_fields"`
	SourceDetails   map[string]map[string]any `json:"source_details"`
	PaymentDetails  *entity.PaymentDetails    `json:"payment_details"`
	ExpectedVersion *int                      `json:"expected_version"`
}

// MergeLeadInput is the incoming duplicate submission folded into an
// existing lead.
type MergeLeadInput struct {
	FirstName     string                    `json:"first_name"`
	LastName      string                    `json:"last_name"`
	Email         string                    `json:"email"`
	Tags          []string                  `json:"tags"`
	SourceDetails map[string]map[string]any `json:"source_details"`
}

// DuplicateCheck is the result of a dedup lookup.
type DuplicateCheck struct {
	Exists          bool         `json:"exists"`
	Lead            *entity.Lead `json:"lead,omitempty"`
	NormalizedPhone string       `json:"normalized_phone"`
}

// BulkResult reports the outcome for one record of a batch. A failure on
// one record never blocks the rest.
type BulkResult struct {
	LeadID string `json:"lead_id"`
	Error  string `json:"error,omitempty"`
}

type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
