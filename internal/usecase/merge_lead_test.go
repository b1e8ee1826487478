package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/usecase"
)

func TestMergeFillsGapsWithoutClobbering(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", Email: "priya@example.com",
		PhoneRaw: "9876543210", Tags: []string{"webinar"},
	}, "admin")
	require.NoError(t, err)

	merged, err := e.leads.Merge(ctx, lead.ID, usecase.MergeLeadInput{
		FirstName: "Priyanka",
		LastName:  "Sharma",
		Email:     "priyanka@other.com",
		Tags:      []string{"webinar", "meta-ads"},
		SourceDetails: map[string]map[string]any{
			"Meta Lead Form": {"ad_id": "999"},
		},
	}, "admin")
	require.NoError(t, err)

	// Populated fields keep their original values.
	assert.Equal(t, "Priya", merged.FirstName)
	assert.Equal(t, "priya@example.com", merged.Email)
	assert.Equal(t, "Priya Sharma", merged.FullName)

	// The incoming identity is preserved, not lost.
	require.NotNil(t, merged.MergedIdentities)
	assert.Equal(t, []string{"priyanka@other.com"}, merged.MergedIdentities.Emails)
	assert.Equal(t, []string{"Priyanka Sharma"}, merged.MergedIdentities.Names)

	// Tag union preserves insertion order.
	assert.Equal(t, []string{"webinar", "meta-ads"}, merged.Tags)
	assert.Contains(t, merged.SourceDetails, "Meta Lead Form")
	assert.Equal(t, 2, merged.Version)
}

func TestMergeFillsEmptyFields(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "S", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)
	require.Empty(t, lead.Email)

	merged, err := e.leads.Merge(ctx, lead.ID, usecase.MergeLeadInput{
		Email: "priya@example.com",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", merged.Email)
}

func TestMergeIdempotentReplay(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", Email: "priya@example.com",
		PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	input := usecase.MergeLeadInput{
		FirstName: "Priyanka", LastName: "Sharma", Email: "priyanka@other.com",
		Tags: []string{"meta-ads"},
	}

	first, err := e.leads.Merge(ctx, lead.ID, input, "admin")
	require.NoError(t, err)
	second, err := e.leads.Merge(ctx, lead.ID, input, "admin")
	require.NoError(t, err)

	assert.Equal(t, first.MergedIdentities.Emails, second.MergedIdentities.Emails)
	assert.Equal(t, first.MergedIdentities.Names, second.MergedIdentities.Names)
	assert.Equal(t, first.Tags, second.Tags)
	assert.Equal(t, first.Version+1, second.Version)
}
