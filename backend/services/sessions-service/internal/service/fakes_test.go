package service

import (
	"context"
	"sync"

	"evcharge/backend/libs/events"
	"evcharge/backend/services/sessions-service/internal/models"
	"evcharge/backend/services/sessions-service/internal/receipt"
	redisstore "evcharge/backend/services/sessions-service/internal/redis"
	"evcharge/backend/services/sessions-service/internal/repository"
)

// memorySessions mirrors the repository guards: one CHARGING row per user, guarded updates.
type memorySessions struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Session

	// afterActiveRead runs once between reading the active row and returning it.
	afterActiveRead func()
}

func newMemorySessions() *memorySessions {
	return &memorySessions{rows: make(map[int64]models.Session)}
}

func (m *memorySessions) CreateActive(_ context.Context, s *models.Session) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserID == s.UserID && row.Status == models.SessionStatusCharging {
			return nil, repository.ErrActiveSessionExists
		}
	}
	m.nextID++
	created := *s
	created.ID = m.nextID
	created.Status = models.SessionStatusCharging
	created.CreatedAt = s.StartTime
	m.rows[created.ID] = created
	out := created
	return &out, nil
}

func (m *memorySessions) GetByID(_ context.Context, id int64) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return &row, nil
}

func (m *memorySessions) ActiveByUser(_ context.Context, userID int64) (*models.Session, error) {
	found := m.activeByUser(userID)
	if hook := m.afterActiveRead; hook != nil {
		m.afterActiveRead = nil
		hook()
	}
	if found == nil {
		return nil, repository.ErrSessionNotFound
	}
	return found, nil
}

func (m *memorySessions) activeByUser(userID int64) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserID == userID && row.Status == models.SessionStatusCharging {
			out := row
			return &out
		}
	}
	return nil
}

func (m *memorySessions) Complete(_ context.Context, id int64, c models.Completion) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.Status != models.SessionStatusCharging {
		return nil, repository.ErrSessionNotCharging
	}
	row.Status = models.SessionStatusCompleted
	row.ChargedKWh = &c.ChargedKWh
	row.Cost = &c.Cost
	row.EndTime = &c.EndTime
	row.DurationMin = &c.DurationMin
	m.rows[id] = row
	out := row
	return &out, nil
}

func (m *memorySessions) DeleteActive(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.Status != models.SessionStatusCharging {
		return repository.ErrSessionNotCharging
	}
	delete(m.rows, id)
	return nil
}

func (m *memorySessions) ListByUser(_ context.Context, userID int64, limit int) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, row := range m.rows {
		if row.UserID == userID && len(out) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memorySessions) chargingCount(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.Status == models.SessionStatusCharging {
			n++
		}
	}
	return n
}

type fakeStations map[string]models.Station

func (f fakeStations) GetStation(_ context.Context, id string) (*models.Station, error) {
	st, ok := f[id]
	if !ok {
		return nil, repository.ErrStationNotFound
	}
	return &st, nil
}

type fakeUsers struct {
	mu     sync.Mutex
	status map[int64]string
}

func (f *fakeUsers) SetStatus(_ context.Context, userID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == nil {
		f.status = make(map[int64]string)
	}
	f.status[userID] = status
	return nil
}

func (f *fakeUsers) get(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status[userID]
}

type fakeExtractor struct {
	parsed *receipt.Parsed
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, []byte, string) (*receipt.Parsed, error) {
	f.calls++
	return f.parsed, f.err
}

type fakeCarbon struct {
	mu      sync.Mutex
	saved   float64
	err     error
	records map[int64]float64
}

func (f *fakeCarbon) ComputeAndRecord(_ context.Context, sessionID, _ int64, _ float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if f.records == nil {
		f.records = make(map[int64]float64)
	}
	f.records[sessionID] = f.saved
	return f.saved, nil
}

func (f *fakeCarbon) TotalSaved(context.Context, int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0.0
	for _, v := range f.records {
		total += v
	}
	return total, nil
}

type fakeCache struct {
	mu   sync.Mutex
	rows map[int64]models.Session
}

func (f *fakeCache) Save(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[int64]models.Session)
	}
	f.rows[s.UserID] = *s
	return nil
}

func (f *fakeCache) Get(_ context.Context, userID int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[userID]
	if !ok {
		return nil, redisstore.ErrMiss
	}
	return &s, nil
}

func (f *fakeCache) Delete(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, userID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
