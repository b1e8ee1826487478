package entity

import (
	"context"
	"time"
)

// EMIDetails is the optional installment sub-schedule attached to a payment.
type EMIDetails struct {
	Tenure          string  `json:"tenure"`
	MonthlyAmount   float64 `json:"monthly_amount"`
	NextPaymentDate string  `json:"next_payment_date"`
}

// PaymentDetails records the enrollment payment. Mode is 'UPI' | 'Card' |
// 'NetBanking' | 'EMI'.
type PaymentDetails struct {
	Amount        float64     `json:"amount"`
	Mode          string      `json:"mode"`
	TransactionID string      `json:"transaction_id"`
	CouponCode    string      `json:"coupon_code,omitempty"`
	PaymentDate   string      `json:"payment_date,omitempty"`
	EMIDetails    *EMIDetails `json:"emi_details,omitempty"`
}

// MergedIdentities keeps the emails and full names absorbed from duplicate
// submissions. Both lists are append-only and deduplicated.
type MergedIdentities struct {
	Emails []string `json:"emails"`
	Names  []string `json:"names"`
}

type Lead struct {
	ID              string `json:"id"`
	Version         int    `json:"version"` // optimistic locking
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	CountryCode     string `json:"country_code"`
	PhoneRaw        string `json:"phone_raw"`
	PhoneNormalized string `json:"phone_normalized"`

	Status          string     `json:"status"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	Source        string                    `json:"source,omitempty"`
	SourceDetails map[string]map[string]any `json:"source_details,omitempty"`

	AssignedTo   string         `json:"assigned_to,omitempty"` // user ID
	Tags         []string       `json:"tags"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`

	PaymentDetails   *PaymentDetails   `json:"payment_details,omitempty"`
	MergedIdentities *MergedIdentities `json:"merged_identities,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

func (l *Lead) IsDeleted() bool {
	return l.DeletedAt != nil
}

// HasTag reports whether the lead carries the tag (exact match).
func (l *Lead) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without touching the
// stored record.
func (l *Lead) Clone() *Lead {
	out := *l
	out.Tags = append([]string(nil), l.Tags...)
	if l.CustomFields != nil {
		out.CustomFields = make(map[string]any, len(l.CustomFields))
		for k, v := range l.CustomFields {
			out.CustomFields[k] = v
		}
	}
	if l.SourceDetails != nil {
		out.SourceDetails = make(map[string]map[string]any, len(l.SourceDetails))
		for k, v := range l.SourceDetails {
			inner := make(map[string]any, len(v))
			for ik, iv := range v {
				inner[ik] = iv
			}
			out.SourceDetails[k] = inner
		}
	}
	if l.PaymentDetails != nil {
		pd := *l.PaymentDetails
		if l.PaymentDetails.EMIDetails != nil {
			emi := *l.PaymentDetails.EMIDetails
			pd.EMIDetails = &emi
		}
		out.PaymentDetails = &pd
	}
	if l.MergedIdentities != nil {
		out.MergedIdentities = &MergedIdentities{
			Emails: append([]string(nil), l.MergedIdentities.Emails...),
			Names:  append([]string(nil), l.MergedIdentities.Names...),
		}
	}
	if l.StatusUpdatedAt != nil {
		t := *l.StatusUpdatedAt
		out.StatusUpdatedAt = &t
	}
	if l.DeletedAt != nil {
		t := *l.DeletedAt
		out.DeletedAt = &t
	}
	return &out
}

type LeadRepository interface {
	Insert(ctx context.Context, lead *Lead) error
	// FindByID returns the lead whether or not it is soft-deleted.
	FindByID(ctx context.Context, id string) (*Lead, error)
	// FindByNormalizedPhone only considers non-deleted leads.
	FindByNormalizedPhone(ctx context.Context, phone string) (*Lead, error)
	// Update persists the full record. The stored version must equal
	// expectedVersion, otherwise ErrVersionConflict and nothing is written.
	Update(ctx context.Context, lead *Lead, expectedVersion int) error
	List(ctx context.Context) ([]*Lead, error)
	ListDeleted(ctx context.Context) ([]*Lead, error)
	// Delete removes the record permanently.
	Delete(ctx context.Context, id string) error
}
