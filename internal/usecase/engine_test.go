package usecase_test

import (
	"context"
	"sync"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/infra/database"
	"github.com/mastry/crm-backend/internal/usecase"
)

// stubSender records sends and fails on demand.
type stubSender struct {
	mu   sync.Mutex
	fail *usecase.AutomationError
	sent []string
}

func (s *stubSender) Send(_ context.Context, channel usecase.Channel, _ *entity.Lead, content string) *usecase.AutomationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		f := *s.fail
		f.Channel = channel
		return &f
	}
	s.sent = append(s.sent, content)
	return nil
}

// stubDeliverer records deliveries and always succeeds unless told not to.
type stubDeliverer struct {
	mu       sync.Mutex
	failURLs map[string]bool
	calls    []string
}

func (d *stubDeliverer) Deliver(_ context.Context, cfg *entity.WebhookConfig, _ entity.AutomationEvent, _ *entity.Lead) usecase.WebhookResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, cfg.WebhookURL)
	if d.failURLs[cfg.WebhookURL] {
		return usecase.WebhookResult{Status: 500, Response: "Internal Server Error"}
	}
	return usecase.WebhookResult{Status: 200, Response: "OK", OK: true}
}

type engine struct {
	store      *database.MemoryStore
	activities *usecase.ActivityLog
	rotator    *usecase.Rotator
	sender     *stubSender
	deliverer  *stubDeliverer
	dispatcher *usecase.AutomationDispatcher
	leads      *usecase.LeadService
	tags       *usecase.TagService
	users      *usecase.UserService
	backup     *usecase.BackupService
}

func newEngine() *engine {
	store := database.NewMemoryStore()
	activities := usecase.NewActivityLog(store.Activities(), store.Leads())
	rotator := usecase.NewRotator(store.Rotation())
	sender := &stubSender{}
	deliverer := &stubDeliverer{failURLs: map[string]bool{}}
	dispatcher := usecase.NewAutomationDispatcher(store.Leads(), store.Webhooks(), activities, sender, deliverer, nil)

	return &engine{
		store:      store,
		activities: activities,
		rotator:    rotator,
		sender:     sender,
		deliverer:  deliverer,
		dispatcher: dispatcher,
		leads:      usecase.NewLeadService(store.Leads(), activities, rotator, dispatcher),
		tags:       usecase.NewTagService(store.Leads(), store.Tags(), activities),
		users:      usecase.NewUserService(store.Users(), rotator),
		backup:     usecase.NewBackupService(store, store.Leads(), store.Users()),
	}
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func activityTypes(acts []*entity.Activity) []string {
	out := make([]string, 0, len(acts))
	for _, a := range acts {
		out = append(out, a.EventType)
	}
	return out
}
