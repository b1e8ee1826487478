package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

func TestCreateLead(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya",
		LastName:  "Sharma",
		Email:     "priya@example.com",
		PhoneRaw:  "98765 43210",
	}, "admin")
	require.NoError(t, err)

	assert.Equal(t, 1, lead.Version)
	assert.Equal(t, entity.StatusNewLead, lead.Status)
	assert.Equal(t, "+919876543210", lead.PhoneNormalized)
	assert.Equal(t, "+91", lead.CountryCode)
	assert.Equal(t, "Priya Sharma", lead.FullName)
	assert.Equal(t, "Manual Entry", lead.Source)
	assert.Empty(t, lead.AssignedTo)

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, entity.ActivityLeadCreated, acts[0].EventType)
	assert.Equal(t, "admin", acts[0].PerformedBy)
}

func TestCreateLeadValidation(t *testing.T) {
	e := newEngine()

	_, err := e.leads.Create(context.Background(), usecase.CreateLeadInput{
		FirstName: "Priya",
		PhoneRaw:  "9876543210",
		Email:     "priya@tempmail.com",
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))
	assert.Contains(t, err.Error(), "last_name")
	assert.Contains(t, err.Error(), "disposable")
}

func TestCreateLeadDuplicateAcrossFormats(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	_, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "98765 43210", CountryCode: "+91",
	}, "admin")
	require.NoError(t, err)

	_, err = e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "P", LastName: "Sharma", PhoneRaw: "+91-9876543210",
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeDuplicateLead))
}

func TestCreateAssignsRoundRobin(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	alice, err := e.users.Invite(ctx, "Alice", "alice@example.com", entity.RoleTeamMember)
	require.NoError(t, err)
	bob, err := e.users.Invite(ctx, "Bob", "bob@example.com", entity.RoleTeamMember)
	require.NoError(t, err)

	phones := []string{"9876500001", "9876500002", "9876500003", "9876500004"}
	var assigned []string
	for _, p := range phones {
		lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
			FirstName: "Lead", LastName: "X", PhoneRaw: p,
		}, "admin")
		require.NoError(t, err)
		assigned = append(assigned, lead.AssignedTo)
	}

	assert.Equal(t, []string{alice.ID, bob.ID, alice.ID, bob.ID}, assigned)
}

func TestUpdateBumpsVersionAndDetectsConflict(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)
	require.Equal(t, 1, lead.Version)

	updated, err := e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status:          strptr(entity.StatusEligible),
		ExpectedVersion: intptr(1),
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	require.NotNil(t, updated.StatusUpdatedAt)

	// Second submit of the same stale form.
	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status:          strptr(entity.StatusSelected),
		ExpectedVersion: intptr(1),
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeConflict))
	assert.Contains(t, err.Error(), "now v2, you had v1")
}

func TestUpdateWithoutExpectedVersionWins(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	updated, err := e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Email: strptr("new@example.com"),
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "new@example.com", updated.Email)
}

func TestEnrollRequiresPayment(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status: strptr(entity.StatusEnrolled),
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))

	// Unchanged on failure.
	stored, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, entity.StatusNewLead, stored.Status)

	updated, err := e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status:         strptr(entity.StatusEnrolled),
		PaymentDetails: &entity.PaymentDetails{Amount: 50000, Mode: "UPI", TransactionID: "TXN1"},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEnrolled, updated.Status)

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)
	types := activityTypes(acts)
	assert.Contains(t, types, entity.ActivityStatusChanged)
	assert.Contains(t, types, entity.ActivityPaymentAdded)
}

func TestRejectRequiresReason(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status: strptr(entity.StatusRejected),
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))

	updated, err := e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status:          strptr(entity.StatusRejected),
		RejectionReason: strptr("Did not meet eligibility criteria"),
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, updated.Status)
}

func TestUnknownStatusRejected(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status: strptr("galactic_overlord"),
	}, "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeValidation))
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	results := e.leads.SoftDelete(ctx, []string{lead.ID}, "admin")
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)

	trashed, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, trashed.IsDeleted())
	assert.Equal(t, 1, trashed.Version)

	active, err := e.leads.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	trash, err := e.leads.ListTrash(ctx)
	require.NoError(t, err)
	assert.Len(t, trash, 1)

	// Trashed leads do not participate in dedup.
	check, err := e.leads.CheckDuplicate(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, check.Exists)

	restored, err := e.leads.Restore(ctx, lead.ID, "admin")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Equal(t, 2, restored.Version)
	assert.Equal(t, "Priya Sharma", restored.FullName)
}

func TestPurgeKeepsActivities(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	e.leads.SoftDelete(ctx, []string{lead.ID}, "admin")
	require.NoError(t, e.leads.Purge(ctx, lead.ID))

	_, err = e.leads.Get(ctx, lead.ID)
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, acts)
}

func TestEmptyTrash(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	var ids []string
	for _, p := range []string{"9876500001", "9876500002", "9876500003"} {
		lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
			FirstName: "Lead", LastName: "X", PhoneRaw: p,
		}, "admin")
		require.NoError(t, err)
		ids = append(ids, lead.ID)
	}

	e.leads.SoftDelete(ctx, ids[:2], "admin")
	purged, err := e.leads.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	remaining, err := e.leads.List(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	results := e.leads.BulkUpdate(ctx, []string{lead.ID, "missing-id"}, usecase.UpdateLeadInput{
		Status: strptr(entity.StatusEligible),
	}, "admin")
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "Lead not found", results[1].Error)

	updated, err := e.leads.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEligible, updated.Status)

	acts, _ := e.activities.ForLead(ctx, lead.ID)
	var found bool
	for _, a := range acts {
		if a.EventType == entity.ActivityStatusChanged {
			found = true
			assert.Equal(t, true, a.EventData["is_bulk"])
		}
	}
	assert.True(t, found)
}

func TestBulkAddRemoveTags(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	a, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "A", LastName: "X", PhoneRaw: "9876500001", Tags: []string{"priority"},
	}, "admin")
	require.NoError(t, err)
	b, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "B", LastName: "X", PhoneRaw: "9876500002",
	}, "admin")
	require.NoError(t, err)

	results := e.leads.BulkAddTags(ctx, []string{a.ID, b.ID}, []string{"priority", "webinar"}, "admin")
	for _, r := range results {
		assert.Empty(t, r.Error)
	}

	aStored, _ := e.leads.Get(ctx, a.ID)
	assert.Equal(t, []string{"priority", "webinar"}, aStored.Tags)
	bStored, _ := e.leads.Get(ctx, b.ID)
	assert.Equal(t, []string{"priority", "webinar"}, bStored.Tags)

	e.leads.BulkRemoveTags(ctx, []string{a.ID}, []string{"priority"}, "admin")
	aStored, _ = e.leads.Get(ctx, a.ID)
	assert.Equal(t, []string{"webinar"}, aStored.Tags)
}
