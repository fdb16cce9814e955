package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/resolveiq/internal/domain"
	"github.com/spec-kit/resolveiq/internal/embedding"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/repository"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func ptr[T any](v T) *T { return &v }

type fakeTickets struct {
	byID      map[string]*domain.Ticket
	avg       *float64
	updateErr error
	updates   int
}

func newFakeTickets(seed ...domain.Ticket) *fakeTickets {
	f := &fakeTickets{byID: map[string]*domain.Ticket{}}
	for i := range seed {
		t := seed[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		f.byID[t.ID] = &t
	}
	return f
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	t.ID = uuid.NewString()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updates++
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTickets) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, t := range f.byID {
		if t.ExternalKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.sorted() {
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTickets) ListRecentlyResolved(_ context.Context, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.byID {
		if t.ResolvedAt != nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResolvedAt.After(*out[j].ResolvedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTickets) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.sorted() {
		if t.Status.IsTerminal() || t.Status == domain.TicketStatusEscalated {
			continue
		}
		if t.ResolutionDueAt != nil && t.ResolutionDueAt.Before(now) {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTickets) CountActiveByPriority(_ context.Context, assigneeID string) (map[domain.TicketPriority]int, error) {
	counts := map[domain.TicketPriority]int{}
	for _, t := range f.byID {
		if t.AssigneeID != nil && *t.AssigneeID == assigneeID && t.Status.IsActive() {
			counts[t.Priority]++
		}
	}
	return counts, nil
}

func (f *fakeTickets) AvgResolutionMinutes(context.Context, *string, domain.TicketPriority) (*float64, error) {
	return f.avg, nil
}

func (f *fakeTickets) sorted() []domain.Ticket {
	out := make([]domain.Ticket, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type fakeDepartments struct {
	byID map[string]*domain.Department
}

func newFakeDepartments(depts ...domain.Department) *fakeDepartments {
	f := &fakeDepartments{byID: map[string]*domain.Department{}}
	for i := range depts {
		d := depts[i]
		f.byID[d.ID] = &d
	}
	return f
}

func (f *fakeDepartments) Create(_ context.Context, d *domain.Department) error {
	d.ID = uuid.NewString()
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDepartments) GetByID(_ context.Context, id string) (*domain.Department, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDepartments) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	var out []domain.Department
	for _, d := range f.byID {
		if d.IsActive || includeInactive {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDepartments) SetActive(_ context.Context, id string, active bool) error {
	d, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	d.IsActive = active
	return nil
}

// fakeRoster backs both the team and the staff repositories so that
// membership stays consistent.
type fakeRoster struct {
	teams   []domain.Team
	staff   map[string]domain.StaffMember
	members map[string][]string
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{staff: map[string]domain.StaffMember{}, members: map[string][]string{}}
}

func (f *fakeRoster) addTeam(id, deptID string, active bool) {
	f.teams = append(f.teams, domain.Team{ID: id, DepartmentID: deptID, Name: id, IsActive: active})
}

func (f *fakeRoster) addStaff(teamID, id string, role domain.StaffRole, active bool) {
	f.staff[id] = domain.StaffMember{ID: id, Name: id, Email: id + "@example.com", Role: role, Active: active}
	if teamID != "" {
		f.members[teamID] = append(f.members[teamID], id)
	}
}

func (f *fakeRoster) teamRepo() repository.TeamRepository   { return (*fakeTeamRepo)(f) }
func (f *fakeRoster) staffRepo() repository.StaffRepository { return (*fakeStaffRepo)(f) }

type fakeTeamRepo fakeRoster

func (f *fakeTeamRepo) Create(_ context.Context, t *domain.Team) error {
	t.ID = uuid.NewString()
	f.teams = append(f.teams, *t)
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	for _, t := range f.teams {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTeamRepo) ListActiveByDepartment(_ context.Context, deptID string) ([]domain.Team, error) {
	var out []domain.Team
	for _, t := range f.teams {
		if t.DepartmentID == deptID && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeamRepo) AddMember(_ context.Context, teamID, staffID string) error {
	for _, id := range f.members[teamID] {
		if id == staffID {
			return nil
		}
	}
	f.members[teamID] = append(f.members[teamID], staffID)
	return nil
}

type fakeStaffRepo fakeRoster

func (f *fakeStaffRepo) Create(_ context.Context, s *domain.StaffMember) error {
	s.ID = uuid.NewString()
	f.staff[s.ID] = *s
	return nil
}

func (f *fakeStaffRepo) Update(_ context.Context, s *domain.StaffMember) error {
	if _, ok := f.staff[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.staff[s.ID] = *s
	return nil
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	s, ok := f.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.StaffMember, error) {
	out := make([]domain.StaffMember, 0, len(f.staff))
	for _, s := range f.staff {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStaffRepo) ListByTeam(_ context.Context, teamID string) ([]domain.StaffMember, error) {
	var out []domain.StaffMember
	for _, id := range f.members[teamID] {
		out = append(out, f.staff[id])
	}
	return out, nil
}

type fakeAnalyses struct {
	byTicket map[string]*domain.TicketAnalysis
	upserts  int
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{byTicket: map[string]*domain.TicketAnalysis{}}
}

func (f *fakeAnalyses) Upsert(_ context.Context, a *domain.TicketAnalysis) error {
	f.upserts++
	if prev, ok := f.byTicket[a.TicketID]; ok {
		a.ID = prev.ID
	} else {
		a.ID = uuid.NewString()
	}
	cp := *a
	f.byTicket[a.TicketID] = &cp
	return nil
}

func (f *fakeAnalyses) GetByTicket(_ context.Context, ticketID string) (*domain.TicketAnalysis, error) {
	a, ok := f.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

type fakePolicies struct {
	types    map[string]domain.TicketType
	policies []domain.SLAPolicy
}

func newFakePolicies() *fakePolicies {
	return &fakePolicies{types: map[string]domain.TicketType{}}
}

func (f *fakePolicies) LookupPolicy(_ context.Context, typeID string, p domain.TicketPriority) (*domain.SLAPolicy, error) {
	for _, pol := range f.policies {
		if pol.TypeID == typeID && pol.Priority == p {
			cp := pol
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePolicies) Upsert(_ context.Context, p *domain.SLAPolicy) error {
	for i := range f.policies {
		if f.policies[i].TypeID == p.TypeID && f.policies[i].Priority == p.Priority {
			p.ID = f.policies[i].ID
			f.policies[i] = *p
			return nil
		}
	}
	p.ID = uuid.NewString()
	f.policies = append(f.policies, *p)
	return nil
}

func (f *fakePolicies) ListByType(_ context.Context, typeID string) ([]domain.SLAPolicy, error) {
	var out []domain.SLAPolicy
	for _, p := range f.policies {
		if p.TypeID == typeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePolicies) CreateType(_ context.Context, t *domain.TicketType) error {
	t.ID = uuid.NewString()
	f.types[t.ID] = *t
	return nil
}

func (f *fakePolicies) GetType(_ context.Context, id string) (*domain.TicketType, error) {
	t, ok := f.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// unitEmbedder maps every text to the same vector, so every neighbor is a twin.
type unitEmbedder struct {
	err   error
	calls int
}

func (u *unitEmbedder) EmbedDocuments(_ context.Context, docs []embedding.Document) ([][]float32, error) {
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	out := make([][]float32, len(docs))
	for i := range docs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}
