package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

// MemoryStore keeps every repository in process memory behind one lock.
// It backs local runs without POSTGRES_DSN and the service tests.
type MemoryStore struct {
	mu            sync.RWMutex
	reviewMu      sync.Mutex
	now           func() time.Time
	athletes      map[string]domain.Athlete
	events        map[string]domain.Event
	convocatorias map[string]domain.Convocatoria
	inscriptions  map[string]domain.Inscription
	inscribed     map[string]string
	accounts      map[string]domain.Account
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		athletes:      make(map[string]domain.Athlete),
		events:        make(map[string]domain.Event),
		convocatorias: make(map[string]domain.Convocatoria),
		inscriptions:  make(map[string]domain.Inscription),
		inscribed:     make(map[string]string),
		accounts:      make(map[string]domain.Account),
	}
}

// Athletes returns the athlete directory view.
func (s *MemoryStore) Athletes() AthleteRepository { return memoryAthletes{s} }

// Events returns the event catalog view.
func (s *MemoryStore) Events() EventRepository { return memoryEvents{s} }

// Inscriptions returns the inscription ledger view.
func (s *MemoryStore) Inscriptions() InscriptionRepository { return memoryInscriptions{s} }

// Accounts returns the account view.
func (s *MemoryStore) Accounts() AccountRepository { return memoryAccounts{s} }

func pairKey(athleteID, convocatoriaID string) string {
	return athleteID + "|" + convocatoriaID
}

type memoryAthletes struct{ s *MemoryStore }

func (m memoryAthletes) Create(_ context.Context, athlete *domain.Athlete) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if athlete.ID == "" {
		athlete.ID = uuid.NewString()
	} else if _, ok := m.s.athletes[athlete.ID]; ok {
		return ErrDuplicate
	}
	now := m.s.now()
	athlete.BirthDate = domain.DateOf(athlete.BirthDate)
	athlete.CreatedAt, athlete.UpdatedAt = now, now
	m.s.athletes[athlete.ID] = *athlete
	return nil
}

func (m memoryAthletes) GetByID(_ context.Context, id string) (*domain.Athlete, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	athlete, ok := m.s.athletes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &athlete, nil
}

func (m memoryAthletes) ListByClub(_ context.Context, clubID string) ([]domain.Athlete, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var result []domain.Athlete
	for _, athlete := range m.s.athletes {
		if athlete.Affiliation.BelongsTo(clubID) {
			result = append(result, athlete)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

type memoryEvents struct{ s *MemoryStore }

func (m memoryEvents) CreateEvent(_ context.Context, event *domain.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := m.s.now()
	event.ID = uuid.NewString()
	event.Date = domain.DateOf(event.Date)
	event.ClosingDate = domain.DateOf(event.ClosingDate)
	event.CreatedAt, event.UpdatedAt = now, now
	for i := range event.Convocatorias {
		conv := &event.Convocatorias[i]
		conv.ID = uuid.NewString()
		conv.EventID = event.ID
		conv.Position = i
		conv.EventStatus = event.Status
		conv.ClosingDate = event.ClosingDate
		conv.UpdatedAt = now
		m.s.convocatorias[conv.ID] = *conv
	}
	stored := *event
	stored.Convocatorias = nil
	m.s.events[event.ID] = stored
	return nil
}

func (m memoryEvents) UpdateEvent(_ context.Context, event *domain.Event) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.events[event.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = event.Title
	stored.Location = event.Location
	stored.Date = domain.DateOf(event.Date)
	stored.ClosingDate = domain.DateOf(event.ClosingDate)
	stored.Status = event.Status
	stored.UpdatedAt = m.s.now()
	m.s.events[event.ID] = stored
	event.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m memoryEvents) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	event, ok := m.s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	event.Convocatorias = m.s.convocatoriasOf(event)
	return &event, nil
}

func (m memoryEvents) ListEvents(_ context.Context, filter EventFilter) ([]domain.Event, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var result []domain.Event
	for _, event := range m.s.events {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, event.Status) {
			continue
		}
		event.Convocatorias = m.s.convocatoriasOf(event)
		result = append(result, event)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (m memoryEvents) GetConvocatoria(_ context.Context, id string) (*domain.Convocatoria, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	conv, ok := m.s.convocatorias[id]
	if !ok {
		return nil, ErrNotFound
	}
	conv = m.s.withEventRules(conv)
	return &conv, nil
}

func (m memoryEvents) UpdateConvocatoria(_ context.Context, conv *domain.Convocatoria) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.convocatorias[conv.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Discipline = conv.Discipline
	stored.Category = conv.Category
	stored.AgeMin = conv.AgeMin
	stored.AgeMax = conv.AgeMax
	stored.GenderFilter = conv.GenderFilter
	stored.UpdatedAt = m.s.now()
	m.s.convocatorias[conv.ID] = stored
	conv.UpdatedAt = stored.UpdatedAt
	return nil
}

// convocatoriasOf must be called with the lock held.
func (s *MemoryStore) convocatoriasOf(event domain.Event) []domain.Convocatoria {
	var result []domain.Convocatoria
	for _, conv := range s.convocatorias {
		if conv.EventID == event.ID {
			conv.EventStatus = event.Status
			conv.ClosingDate = event.ClosingDate
			result = append(result, conv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result
}

// withEventRules must be called with the lock held.
func (s *MemoryStore) withEventRules(conv domain.Convocatoria) domain.Convocatoria {
	if event, ok := s.events[conv.EventID]; ok {
		conv.EventStatus = event.Status
		conv.ClosingDate = event.ClosingDate
	}
	return conv
}

func containsStatus(statuses []domain.EventStatus, status domain.EventStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type memoryInscriptions struct{ s *MemoryStore }

func (m memoryInscriptions) Create(_ context.Context, ins *domain.Inscription) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := pairKey(ins.AthleteID, ins.ConvocatoriaID)
	if _, taken := m.s.inscribed[key]; taken {
		return ErrDuplicate
	}
	ins.ID = uuid.NewString()
	m.s.inscriptions[ins.ID] = *ins
	m.s.inscribed[key] = ins.ID
	return nil
}

func (m memoryInscriptions) GetByID(_ context.Context, id string) (*domain.Inscription, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	ins, ok := m.s.inscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ins, nil
}

func (m memoryInscriptions) Exists(_ context.Context, athleteID, convocatoriaID string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	_, ok := m.s.inscribed[pairKey(athleteID, convocatoriaID)]
	return ok, nil
}

func (m memoryInscriptions) MarkValidated(_ context.Context, id, validatorID string, at time.Time) (*domain.Inscription, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	ins, ok := m.s.inscriptions[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if ins.Validated {
		return &ins, false, nil
	}
	ins.Validated = true
	ins.ValidatedAt = &at
	ins.ValidatedBy = &validatorID
	m.s.inscriptions[id] = ins
	return &ins, true, nil
}

func (m memoryInscriptions) List(_ context.Context, filter InscriptionFilter) ([]domain.Inscription, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var result []domain.Inscription
	for _, ins := range m.s.inscriptions {
		if filter.EventID != nil && ins.EventID != *filter.EventID {
			continue
		}
		if filter.ConvocatoriaID != nil && ins.ConvocatoriaID != *filter.ConvocatoriaID {
			continue
		}
		if filter.AthleteID != nil && ins.AthleteID != *filter.AthleteID {
			continue
		}
		if filter.ClubID != nil {
			athlete, ok := m.s.athletes[ins.AthleteID]
			if !ok || !athlete.Affiliation.BelongsTo(*filter.ClubID) {
				continue
			}
		}
		if filter.FlaggedOnly && !ins.FlaggedForReview {
			continue
		}
		result = append(result, ins)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].RegisteredAt.Before(result[j].RegisteredAt)
		}
		return result[i].ID < result[j].ID
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (m memoryInscriptions) ApplyReviewFlags(_ context.Context, flags []domain.ReviewFlag) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, flag := range flags {
		if _, ok := m.s.inscriptions[flag.InscriptionID]; !ok {
			return ErrNotFound
		}
	}
	for _, flag := range flags {
		ins := m.s.inscriptions[flag.InscriptionID]
		at := flag.At
		ins.FlaggedForReview = flag.Flagged
		ins.ReviewReason = flag.Reason
		ins.ReviewedAt = &at
		m.s.inscriptions[flag.InscriptionID] = ins
	}
	return nil
}

func (m memoryInscriptions) ReviewConvocatoria(ctx context.Context, convocatoriaID string, review ReviewFunc) error {
	m.s.reviewMu.Lock()
	defer m.s.reviewMu.Unlock()

	m.s.mu.RLock()
	_, ok := m.s.convocatorias[convocatoriaID]
	m.s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	ledger, err := m.List(ctx, InscriptionFilter{ConvocatoriaID: &convocatoriaID})
	if err != nil {
		return err
	}
	flags, err := review(ctx, ledger)
	if err != nil {
		return err
	}
	return m.ApplyReviewFlags(ctx, flags)
}

type memoryAccounts struct{ s *MemoryStore }

func (m memoryAccounts) Create(_ context.Context, account *domain.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return ErrDuplicate
		}
	}
	now := m.s.now()
	account.ID = uuid.NewString()
	account.CreatedAt, account.UpdatedAt = now, now
	m.s.accounts[account.ID] = *account
	return nil
}

func (m memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	account, ok := m.s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

func (m memoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, account := range m.s.accounts {
		if strings.EqualFold(account.Email, email) {
			return &account, nil
		}
	}
	return nil, ErrNotFound
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
