package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivd-portal/inscription-service/internal/domain"
)

const (
	convocatoriaKeyPrefix = "ivd:convocatoria:"
	generationKeyPrefix   = "ivd:convocatoria:gen:"
)

// fillScript stores a value only while the convocatoria generation still
// matches the one read before the database lookup.
var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
if ARGV[3] == '0' then
	redis.call('SET', KEYS[1], ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
end
return 1
`)

// CacheRecorder receives cache lookup outcomes.
type CacheRecorder interface {
	RecordCacheLookup(outcome string)
}

// cachedEventRepository serves GetConvocatoria from Redis and drops entries
// whenever the event or the convocatoria is written. Every write bumps a
// per-convocatoria generation so a read that started before the write cannot
// put its older snapshot back into the cache.
type cachedEventRepository struct {
	EventRepository
	client   *redis.Client
	ttl      time.Duration
	logger   *zap.Logger
	recorder CacheRecorder
}

// NewCachedEventRepository wraps next with a read-through convocatoria cache.
// A nil client returns next unchanged.
func NewCachedEventRepository(next EventRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger, recorder CacheRecorder) EventRepository {
	if client == nil {
		return next
	}
	return &cachedEventRepository{
		EventRepository: next,
		client:          client,
		ttl:             ttl,
		logger:          logger,
		recorder:        recorder,
	}
}

type cachedConvocatoria struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	Position     int       `json:"position"`
	Discipline   string    `json:"discipline"`
	Category     string    `json:"category"`
	AgeMin       int       `json:"age_min"`
	AgeMax       int       `json:"age_max"`
	GenderFilter string    `json:"gender_filter"`
	EventStatus  string    `json:"event_status"`
	ClosingDate  string    `json:"closing_date"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *cachedEventRepository) GetConvocatoria(ctx context.Context, id string) (*domain.Convocatoria, error) {
	raw, err := r.client.Get(ctx, convocatoriaKeyPrefix+id).Bytes()
	switch {
	case err == nil:
		if conv, decodeErr := decodeConvocatoria(raw); decodeErr == nil {
			r.record("hit")
			return conv, nil
		}
		r.record("error")
	case errors.Is(err, redis.Nil):
		r.record("miss")
	default:
		r.record("error")
		r.logger.Warn("convocatoria cache read failed", zap.String("convocatoria_id", id), zap.Error(err))
	}

	gen, genErr := r.client.Get(ctx, generationKeyPrefix+id).Result()
	switch {
	case errors.Is(genErr, redis.Nil):
		gen, genErr = "0", nil
	case genErr != nil:
		r.logger.Warn("convocatoria cache generation read failed", zap.String("convocatoria_id", id), zap.Error(genErr))
	}

	conv, err := r.EventRepository.GetConvocatoria(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		r.store(ctx, conv, gen)
	}
	return conv, nil
}

func (r *cachedEventRepository) UpdateConvocatoria(ctx context.Context, conv *domain.Convocatoria) error {
	if err := r.EventRepository.UpdateConvocatoria(ctx, conv); err != nil {
		return err
	}
	r.invalidate(ctx, conv.ID)
	return nil
}

func (r *cachedEventRepository) UpdateEvent(ctx context.Context, event *domain.Event) error {
	if err := r.EventRepository.UpdateEvent(ctx, event); err != nil {
		return err
	}
	stored, err := r.EventRepository.GetEvent(ctx, event.ID)
	if err != nil {
		r.logger.Warn("unable to list convocatorias for cache invalidation", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	ids := make([]string, 0, len(stored.Convocatorias))
	for _, conv := range stored.Convocatorias {
		ids = append(ids, conv.ID)
	}
	r.invalidate(ctx, ids...)
	return nil
}

func (r *cachedEventRepository) store(ctx context.Context, conv *domain.Convocatoria, gen string) {
	payload, err := json.Marshal(cachedConvocatoria{
		ID:           conv.ID,
		EventID:      conv.EventID,
		Position:     conv.Position,
		Discipline:   conv.Discipline,
		Category:     conv.Category,
		AgeMin:       conv.AgeMin,
		AgeMax:       conv.AgeMax,
		GenderFilter: string(conv.GenderFilter),
		EventStatus:  string(conv.EventStatus),
		ClosingDate:  domain.DateOf(conv.ClosingDate).Format(domain.DateLayout),
		UpdatedAt:    conv.UpdatedAt,
	})
	if err != nil {
		return
	}
	keys := []string{convocatoriaKeyPrefix + conv.ID, generationKeyPrefix + conv.ID}
	ttl := strconv.FormatInt(r.ttl.Milliseconds(), 10)
	stored, err := fillScript.Run(ctx, r.client, keys, gen, payload, ttl).Int()
	if err != nil {
		r.logger.Warn("convocatoria cache write failed", zap.String("convocatoria_id", conv.ID), zap.Error(err))
		return
	}
	if stored == 0 {
		r.logger.Debug("convocatoria changed during read, cache fill skipped", zap.String("convocatoria_id", conv.ID))
	}
}

func (r *cachedEventRepository) invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = convocatoriaKeyPrefix + id
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Incr(ctx, generationKeyPrefix+id)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		r.logger.Error("convocatoria cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (r *cachedEventRepository) record(outcome string) {
	if r.recorder != nil {
		r.recorder.RecordCacheLookup(outcome)
	}
}

func decodeConvocatoria(raw []byte) (*domain.Convocatoria, error) {
	var cached cachedConvocatoria
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, err
	}
	closing, err := domain.ParseDate(cached.ClosingDate)
	if err != nil {
		return nil, err
	}
	return &domain.Convocatoria{
		ID:           cached.ID,
		EventID:      cached.EventID,
		Position:     cached.Position,
		Discipline:   cached.Discipline,
		Category:     cached.Category,
		AgeMin:       cached.AgeMin,
		AgeMax:       cached.AgeMax,
		GenderFilter: domain.GenderFilter(cached.GenderFilter),
		EventStatus:  domain.EventStatus(cached.EventStatus),
		ClosingDate:  closing,
		UpdatedAt:    cached.UpdatedAt,
	}, nil
}
