package entity

import (
	"context"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleTeamMember Role = "team_member"
)

// SystemActor is used as performed_by for activities the engine records on
// its own behalf (webhook deliveries etc).
const SystemActor = "system"

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// AssignmentRotation is the singleton round-robin state. EligibleUserIDs
// holds active agents in rotation order; LastAssignedUserID is the pointer.
type AssignmentRotation struct {
	LastAssignedUserID string    `json:"last_assigned_user_id"`
	EligibleUserIDs    []string  `json:"eligible_user_ids"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type UserRepository interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
}

type RotationRepository interface {
	Get(ctx context.Context) (*AssignmentRotation, error)
	Save(ctx context.Context, r *AssignmentRotation) error
}
