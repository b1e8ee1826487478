package entity

// Status is one stage of the sales pipeline. RequiresPayment and
// RequiresRejectionReason are data preconditions checked before a lead may
// be moved into the stage.
type Status struct {
	ID                      string `json:"id"`
	Label                   string `json:"label"`
	Slug                    string `json:"slug"`
	Color                   string `json:"color"`
	Order                   int    `json:"order"`
	RequiresPayment         bool   `json:"requires_payment"`
	RequiresRejectionReason bool   `json:"requires_rejection_reason"`
}

const (
	StatusNewLead            = "new_lead"
	StatusEligible           = "eligible"
	StatusNonEligible        = "non_eligible"
	StatusInterviewScheduled = "interview_scheduled"
	StatusFollowUps          = "follow_ups"
	StatusSelected           = "selected"
	StatusRejected           = "rejected"
	StatusNotInterested      = "not_interested"
	StatusEnrolled           = "enrolled"
)

// DefaultStatuses is the fixed ordered pipeline.
var DefaultStatuses = []Status{
	{ID: StatusNewLead, Label: "New Lead", Slug: StatusNewLead, Color: "#3B82F6", Order: 1},
	{ID: StatusEligible, Label: "Eligible", Slug: StatusEligible, Color: "#10B981", Order: 2},
	{ID: StatusNonEligible, Label: "Non Eligible", Slug: StatusNonEligible, Color: "#6B7280", Order: 3},
	{ID: StatusInterviewScheduled, Label: "Interview Scheduled", Slug: StatusInterviewScheduled, Color: "#F59E0B", Order: 4},
	{ID: StatusFollowUps, Label: "Follow-ups", Slug: StatusFollowUps, Color: "#8B5CF6", Order: 5},
	{ID: StatusSelected, Label: "Selected", Slug: StatusSelected, Color: "#06B6D4", Order: 6},
	{ID: StatusRejected, Label: "Rejected", Slug: StatusRejected, Color: "#EF4444", Order: 7, RequiresRejectionReason: true},
	{ID: StatusNotInterested, Label: "Not Interested", Slug: StatusNotInterested, Color: "#9CA3AF", Order: 8},
	{ID: StatusEnrolled, Label: "Enrolled", Slug: StatusEnrolled, Color: "#7C3AED", Order: 9, RequiresPayment: true},
}

// FindStatus looks a stage up by id. ok is false for unknown stages.
func FindStatus(id string) (Status, bool) {
	for _, s := range DefaultStatuses {
		if s.ID == id {
			return s, true
		}
	}
	return Status{}, false
}
