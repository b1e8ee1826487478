package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// Snapshot is the portable dump of engine state used for backup and
// restore.
type Snapshot struct {
	Version     string                     `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Leads       []*entity.Lead             `json:"leads"`
	Users       []*entity.User             `json:"users"`
	Activities  []*entity.Activity         `json:"activities"`
	Tags        []string                   `json:"tags"`
	Webhooks    []*entity.WebhookConfig    `json:"webhooks"`
	Rotation    *entity.AssignmentRotation `json:"rotation"`
}

// SnapshotStore is implemented by stores that can dump and replace their
// full state atomically.
type SnapshotStore interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	RestoreSnapshot(ctx context.Context, snap *Snapshot) error
}

// SystemMetrics is the at-a-glance dashboard summary.
type SystemMetrics struct {
	TotalLeads    int `json:"total_leads"`
	NewLeadsToday int `json:"new_leads_today"`
	ActiveUsers   int `json:"active_users"`
	TrashedLeads  int `json:"trashed_leads"`
}

// BackupService exports and restores full-state snapshots and reports
// system metrics.
type BackupService struct {
	Store SnapshotStore
	Leads entity.LeadRepository
	Users entity.UserRepository
}

func NewBackupService(store SnapshotStore, leads entity.LeadRepository, users entity.UserRepository) *BackupService {
	return &BackupService{Store: store, Leads: leads, Users: users}
}

// Export serializes the current state. The payload round-trips through
// Restore unchanged.
func (s *BackupService) Export(ctx context.Context) ([]byte, error) {
	snap, err := s.Store.Snapshot(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "BACKUP_FAILED", Message: err.Error()}
	}
	snap.Version = "1.0"
	snap.GeneratedAt = time.Now()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, &TechnicalError{Code: "BACKUP_FAILED", Message: err.Error()}
	}
	return data, nil
}

// Restore replaces the entire state with the uploaded snapshot. The shape
// is validated before anything is touched.
func (s *BackupService) Restore(ctx context.Context, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &DomainError{Code: CodeValidation, Message: "Invalid backup file: not valid JSON"}
	}
	if snap.Leads == nil || snap.Users == nil {
		return &DomainError{Code: CodeValidation, Message: "Invalid backup file: missing leads or users"}
	}
	if err := s.Store.RestoreSnapshot(ctx, &snap); err != nil {
		return &TechnicalError{Code: "RESTORE_FAILED", Message: err.Error()}
	}
	return nil
}

// Metrics computes the dashboard counters.
func (s *BackupService) Metrics(ctx context.Context) (*SystemMetrics, error) {
	leads, err := s.Leads.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	trashed, err := s.Leads.ListDeleted(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}

	m := &SystemMetrics{TotalLeads: len(leads), TrashedLeads: len(trashed)}
	today := time.Now().Truncate(24 * time.Hour)
	for _, l := range leads {
		if !l.CreatedAt.Before(today) {
			m.NewLeadsToday++
		}
	}
	for _, u := range users {
		if u.IsActive {
			m.ActiveUsers++
		}
	}
	return m, nil
}
