package usecase

import (
	"context"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// Rotator owns the round-robin assignment pointer over active agents. The
// rotation state is an explicit persisted value, not ambient globals.
type Rotator struct {
	Repo entity.RotationRepository
}

func NewRotator(repo entity.RotationRepository) *Rotator {
	return &Rotator{Repo: repo}
}

// NextAgent advances the pointer and returns the next eligible agent id,
// or "" when nobody is eligible. If the previously-assigned agent dropped
// out of the eligible list since the last call, rotation restarts at the
// first agent.
func (r *Rotator) NextAgent(ctx context.Context) (string, error) {
	rot, err := r.Repo.Get(ctx)
	if err != nil {
		return "", err
	}
	if len(rot.EligibleUserIDs) == 0 {
		return "", nil
	}

	next := 0
	if rot.LastAssignedUserID != "" {
		for i, id := range rot.EligibleUserIDs {
			if id == rot.LastAssignedUserID {
				next = (i + 1) % len(rot.EligibleUserIDs)
				break
			}
		}
	}

	agent := rot.EligibleUserIDs[next]
	rot.LastAssignedUserID = agent
	rot.UpdatedAt = time.Now()
	if err := r.Repo.Save(ctx, rot); err != nil {
		return "", err
	}
	return agent, nil
}

// AddAgent appends the agent to the end of the current rotation order.
// No-op if already eligible.
func (r *Rotator) AddAgent(ctx context.Context, userID string) error {
	rot, err := r.Repo.Get(ctx)
	if err != nil {
		return err
	}
	for _, id := range rot.EligibleUserIDs {
		if id == userID {
			return nil
		}
	}
	rot.EligibleUserIDs = append(rot.EligibleUserIDs, userID)
	rot.UpdatedAt = time.Now()
	return r.Repo.Save(ctx, rot)
}

// RemoveAgent drops the agent from the eligible list and clears the pointer
// if it pointed at them.
func (r *Rotator) RemoveAgent(ctx context.Context, userID string) error {
	rot, err := r.Repo.Get(ctx)
	if err != nil {
		return err
	}
	kept := rot.EligibleUserIDs[:0]
	for _, id := range rot.EligibleUserIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	rot.EligibleUserIDs = kept
	if rot.LastAssignedUserID == userID {
		rot.LastAssignedUserID = ""
	}
	rot.UpdatedAt = time.Now()
	return r.Repo.Save(ctx, rot)
}
