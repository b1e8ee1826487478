package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

// MemoryStore keeps the full engine state in process memory behind one
// mutex. It backs local development and tests; production runs on the
// Postgres repositories.
type MemoryStore struct {
	mu sync.Mutex

	leads      map[string]*entity.Lead
	leadOrder  []string
	users      map[string]*entity.User
	userOrder  []string
	activities []*entity.Activity
	tags       []string
	webhooks   map[string]*entity.WebhookConfig
	whOrder    []string
	rotation   *entity.AssignmentRotation

	emailTemplates    map[string]*entity.EmailTemplate
	emailOrder        []string
	whatsappTemplates map[string]*entity.WhatsAppTemplate
	waOrder           []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:             map[string]*entity.Lead{},
		users:             map[string]*entity.User{},
		webhooks:          map[string]*entity.WebhookConfig{},
		rotation:          &entity.AssignmentRotation{EligibleUserIDs: []string{}},
		emailTemplates:    map[string]*entity.EmailTemplate{},
		whatsappTemplates: map[string]*entity.WhatsAppTemplate{},
	}
}

// --- LeadRepository ---

func (m *MemoryStore) Insert(_ context.Context, lead *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.leads {
		if !existing.IsDeleted() && existing.PhoneNormalized == lead.PhoneNormalized {
			return entity.ErrPhoneAlreadyExists
		}
	}
	m.leads[lead.ID] = lead.Clone()
	m.leadOrder = append(m.leadOrder, lead.ID)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return lead.Clone(), nil
}

func (m *MemoryStore) FindByNormalizedPhone(_ context.Context, phone string) (*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.leadOrder {
		lead := m.leads[id]
		if lead != nil && !lead.IsDeleted() && lead.PhoneNormalized == phone {
			return lead.Clone(), nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (m *MemoryStore) Update(_ context.Context, lead *entity.Lead, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.leads[lead.ID]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if stored.Version != expectedVersion {
		return entity.ErrVersionConflict
	}
	m.leads[lead.ID] = lead.Clone()
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectLeads(false), nil
}

func (m *MemoryStore) ListDeleted(_ context.Context) ([]*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectLeads(true), nil
}

func (m *MemoryStore) collectLeads(deleted bool) []*entity.Lead {
	out := []*entity.Lead{}
	for _, id := range m.leadOrder {
		lead := m.leads[id]
		if lead != nil && lead.IsDeleted() == deleted {
			out = append(out, lead.Clone())
		}
	}
	return out
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[id]; !ok {
		return entity.ErrLeadNotFound
	}
	delete(m.leads, id)
	for i, lid := range m.leadOrder {
		if lid == id {
			m.leadOrder = append(m.leadOrder[:i], m.leadOrder[i+1:]...)
			break
		}
	}
	return nil
}

// --- UserRepository ---

func (m *MemoryStore) InsertUser(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; ok {
		return entity.ErrUserAlreadyExists
	}
	cp := *u
	m.users[u.ID] = &cp
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *MemoryStore) FindUserByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.userOrder {
		if u := m.users[id]; u != nil && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entity.ErrUserNotFound
}

func (m *MemoryStore) UpdateUser(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return entity.ErrUserNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u := m.users[id]; u != nil {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- RotationRepository ---

func (m *MemoryStore) Get(_ context.Context) (*entity.AssignmentRotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *m.rotation
	cp.EligibleUserIDs = append([]string(nil), m.rotation.EligibleUserIDs...)
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, r *entity.AssignmentRotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	cp.EligibleUserIDs = append([]string(nil), r.EligibleUserIDs...)
	m.rotation = &cp
	return nil
}

// --- ActivityRepository ---

func (m *MemoryStore) InsertActivity(_ context.Context, a *entity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.activities = append(m.activities, &cp)
	return nil
}

func (m *MemoryStore) ListByLead(_ context.Context, leadID string) ([]*entity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*entity.Activity{}
	for _, a := range m.activities {
		if a.LeadID == leadID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortActivitiesDesc(out)
	return out, nil
}

func (m *MemoryStore) ListByType(_ context.Context, eventType string) ([]*entity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*entity.Activity{}
	for _, a := range m.activities {
		if a.EventType == eventType {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortActivitiesDesc(out)
	return out, nil
}

func (m *MemoryStore) ListActivities(_ context.Context) ([]*entity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		cp := *a
		out = append(out, &cp)
	}
	sortActivitiesDesc(out)
	return out, nil
}

func sortActivitiesDesc(list []*entity.Activity) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})
}

// --- TagRepository ---

func (m *MemoryStore) ListTags(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tags...), nil
}

func (m *MemoryStore) SaveTags(_ context.Context, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append([]string(nil), tags...)
	return nil
}

// --- WebhookRepository ---

func (m *MemoryStore) ListWebhooks(_ context.Context) ([]*entity.WebhookConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.WebhookConfig, 0, len(m.whOrder))
	for _, id := range m.whOrder {
		if w := m.webhooks[id]; w != nil {
			cp := *w
			cp.Triggers = append([]string(nil), w.Triggers...)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveWebhook(_ context.Context, w *entity.WebhookConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.webhooks[w.ID]; !ok {
		m.whOrder = append(m.whOrder, w.ID)
	}
	cp := *w
	cp.Triggers = append([]string(nil), w.Triggers...)
	m.webhooks[w.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteWebhook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.webhooks, id)
	for i, wid := range m.whOrder {
		if wid == id {
			m.whOrder = append(m.whOrder[:i], m.whOrder[i+1:]...)
			break
		}
	}
	return nil
}

// --- TemplateRepository ---

func (m *MemoryStore) ListEmailTemplates(_ context.Context) ([]*entity.EmailTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.EmailTemplate, 0, len(m.emailOrder))
	for _, id := range m.emailOrder {
		if t := m.emailTemplates[id]; t != nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveEmailTemplate(_ context.Context, t *entity.EmailTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emailTemplates[t.ID]; !ok {
		m.emailOrder = append(m.emailOrder, t.ID)
	}
	cp := *t
	m.emailTemplates[t.ID] = &cp
	return nil
}

func (m *MemoryStore) ListWhatsAppTemplates(_ context.Context) ([]*entity.WhatsAppTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entity.WhatsAppTemplate, 0, len(m.waOrder))
	for _, id := range m.waOrder {
		if t := m.whatsappTemplates[id]; t != nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveWhatsAppTemplate(_ context.Context, t *entity.WhatsAppTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.whatsappTemplates[t.ID]; !ok {
		m.waOrder = append(m.waOrder, t.ID)
	}
	cp := *t
	m.whatsappTemplates[t.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteWhatsAppTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.whatsappTemplates, id)
	for i, tid := range m.waOrder {
		if tid == id {
			m.waOrder = append(m.waOrder[:i], m.waOrder[i+1:]...)
			break
		}
	}
	return nil
}

// --- snapshots ---

func (m *MemoryStore) Snapshot(_ context.Context) (*usecase.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &usecase.Snapshot{
		GeneratedAt: time.Now(),
		Leads:       []*entity.Lead{},
		Users:       []*entity.User{},
		Activities:  []*entity.Activity{},
		Tags:        append([]string(nil), m.tags...),
		Webhooks:    []*entity.WebhookConfig{},
	}
	for _, id := range m.leadOrder {
		if l := m.leads[id]; l != nil {
			snap.Leads = append(snap.Leads, l.Clone())
		}
	}
	for _, id := range m.userOrder {
		if u := m.users[id]; u != nil {
			cp := *u
			snap.Users = append(snap.Users, &cp)
		}
	}
	for _, a := range m.activities {
		cp := *a
		snap.Activities = append(snap.Activities, &cp)
	}
	for _, id := range m.whOrder {
		if w := m.webhooks[id]; w != nil {
			cp := *w
			snap.Webhooks = append(snap.Webhooks, &cp)
		}
	}
	rot := *m.rotation
	rot.EligibleUserIDs = append([]string(nil), m.rotation.EligibleUserIDs...)
	snap.Rotation = &rot
	return snap, nil
}

func (m *MemoryStore) RestoreSnapshot(_ context.Context, snap *usecase.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leads = map[string]*entity.Lead{}
	m.leadOrder = nil
	for _, l := range snap.Leads {
		m.leads[l.ID] = l.Clone()
		m.leadOrder = append(m.leadOrder, l.ID)
	}

	m.users = map[string]*entity.User{}
	m.userOrder = nil
	for _, u := range snap.Users {
		cp := *u
		m.users[u.ID] = &cp
		m.userOrder = append(m.userOrder, u.ID)
	}

	m.activities = nil
	for _, a := range snap.Activities {
		cp := *a
		m.activities = append(m.activities, &cp)
	}

	m.tags = append([]string(nil), snap.Tags...)

	m.webhooks = map[string]*entity.WebhookConfig{}
	m.whOrder = nil
	for _, w := range snap.Webhooks {
		cp := *w
		m.webhooks[w.ID] = &cp
		m.whOrder = append(m.whOrder, w.ID)
	}

	if snap.Rotation != nil {
		rot := *snap.Rotation
		rot.EligibleUserIDs = append([]string(nil), snap.Rotation.EligibleUserIDs...)
		m.rotation = &rot
	} else {
		m.rotation = &entity.AssignmentRotation{EligibleUserIDs: []string{}}
	}
	return nil
}

// --- repository views ---
//
// The repository interfaces share method names (Insert, FindByID, List) with
// different signatures, so the store exposes one thin view per interface.

type memoryUsers struct{ s *MemoryStore }

func (v memoryUsers) Insert(ctx context.Context, u *entity.User) error { return v.s.InsertUser(ctx, u) }
func (v memoryUsers) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return v.s.FindUserByID(ctx, id)
}
func (v memoryUsers) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return v.s.FindUserByEmail(ctx, email)
}
func (v memoryUsers) Update(ctx context.Context, u *entity.User) error { return v.s.UpdateUser(ctx, u) }
func (v memoryUsers) List(ctx context.Context) ([]*entity.User, error) { return v.s.ListUsers(ctx) }

type memoryActivities struct{ s *MemoryStore }

func (v memoryActivities) Insert(ctx context.Context, a *entity.Activity) error {
	return v.s.InsertActivity(ctx, a)
}
func (v memoryActivities) ListByLead(ctx context.Context, leadID string) ([]*entity.Activity, error) {
	return v.s.ListByLead(ctx, leadID)
}
func (v memoryActivities) ListByType(ctx context.Context, eventType string) ([]*entity.Activity, error) {
	return v.s.ListByType(ctx, eventType)
}
func (v memoryActivities) List(ctx context.Context) ([]*entity.Activity, error) {
	return v.s.ListActivities(ctx)
}

type memoryTags struct{ s *MemoryStore }

func (v memoryTags) List(ctx context.Context) ([]string, error)    { return v.s.ListTags(ctx) }
func (v memoryTags) Save(ctx context.Context, tags []string) error { return v.s.SaveTags(ctx, tags) }

type memoryWebhooks struct{ s *MemoryStore }

func (v memoryWebhooks) List(ctx context.Context) ([]*entity.WebhookConfig, error) {
	return v.s.ListWebhooks(ctx)
}
func (v memoryWebhooks) Save(ctx context.Context, w *entity.WebhookConfig) error {
	return v.s.SaveWebhook(ctx, w)
}
func (v memoryWebhooks) Delete(ctx context.Context, id string) error {
	return v.s.DeleteWebhook(ctx, id)
}

// Leads returns the store as a lead repository.
func (m *MemoryStore) Leads() entity.LeadRepository { return m }

// Users returns the user repository view.
func (m *MemoryStore) Users() entity.UserRepository { return memoryUsers{m} }

// Rotation returns the rotation repository view.
func (m *MemoryStore) Rotation() entity.RotationRepository { return m }

// Activities returns the activity repository view.
func (m *MemoryStore) Activities() entity.ActivityRepository { return memoryActivities{m} }

// Tags returns the tag registry view.
func (m *MemoryStore) Tags() entity.TagRepository { return memoryTags{m} }

// Webhooks returns the webhook subscription view.
func (m *MemoryStore) Webhooks() entity.WebhookRepository { return memoryWebhooks{m} }

// Templates returns the template repository view.
func (m *MemoryStore) Templates() entity.TemplateRepository { return m }
