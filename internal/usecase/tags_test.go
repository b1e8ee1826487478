package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/usecase"
)

func TestTagCreateIdempotent(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	require.NoError(t, e.tags.Create(ctx, "priority"))
	require.NoError(t, e.tags.Create(ctx, "priority"))

	list, err := e.tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []usecase.TagCount{{Name: "priority", Count: 0}}, list)
}

func TestTagRenamePropagatesAndDedupes(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
		Tags: []string{"webinar", "hot"},
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, e.tags.Create(ctx, "webinar"))
	require.NoError(t, e.tags.Rename(ctx, "webinar", "hot", "admin"))

	stored, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hot"}, stored.Tags)
	assert.Equal(t, lead.Version+1, stored.Version)
}

func TestTagRenameTouchesTrashedLeads(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
		Tags: []string{"old-name"},
	}, "admin")
	require.NoError(t, err)
	e.leads.SoftDelete(ctx, []string{lead.ID}, "admin")

	require.NoError(t, e.tags.Rename(ctx, "old-name", "new-name", "admin"))

	stored, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-name"}, stored.Tags)
}

func TestTagDeleteStripsEverywhere(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	a, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "A", LastName: "X", PhoneRaw: "9876500001", Tags: []string{"drop", "keep"},
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, e.tags.Create(ctx, "drop"))
	require.NoError(t, e.tags.Delete(ctx, "drop", "admin"))

	stored, err := e.leads.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, stored.Tags)

	list, err := e.tags.List(ctx)
	require.NoError(t, err)
	for _, tc := range list {
		assert.NotEqual(t, "drop", tc.Name)
	}
}

func TestTagMergeAbsorbsOldName(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "A", LastName: "X", PhoneRaw: "9876500001", Tags: []string{"warm", "hot"},
	}, "admin")
	require.NoError(t, err)

	require.NoError(t, e.tags.Create(ctx, "warm"))
	require.NoError(t, e.tags.Create(ctx, "hot"))
	require.NoError(t, e.tags.Merge(ctx, "warm", "hot", "admin"))

	stored, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hot"}, stored.Tags)

	list, err := e.tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []usecase.TagCount{{Name: "hot", Count: 1}}, list)
}

func TestTagListCountsLiveLeadsOnly(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	a, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "A", LastName: "X", PhoneRaw: "9876500001", Tags: []string{"hot"},
	}, "admin")
	require.NoError(t, err)
	_, err = e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "B", LastName: "X", PhoneRaw: "9876500002", Tags: []string{"hot"},
	}, "admin")
	require.NoError(t, err)
	require.NoError(t, e.tags.Create(ctx, "unused"))

	e.leads.SoftDelete(ctx, []string{a.ID}, "admin")

	list, err := e.tags.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []usecase.TagCount{{Name: "hot", Count: 1}, {Name: "unused", Count: 0}}, list)
}
