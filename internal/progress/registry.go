package progress

import (
	"context"
	"sync"
	"time"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"go.uber.org/zap"
)

// RepositoryFactory builds the repository used by one learner's service
type RepositoryFactory func(learnerID int) domain.ProgressRepository

// SharedRepository every learner uses repo
func SharedRepository(repo domain.ProgressRepository) RepositoryFactory {
	return func(int) domain.ProgressRepository {
		return repo
	}
}

type registryEntry struct {
	svc      *Service
	ready    chan struct{} // closed once preload finished
	lastUsed time.Time
}

// Registry one progress Service per signed-in learner
type Registry struct {
	repos     RepositoryFactory
	anonymous domain.ProgressRepository
	alerter   domain.Alerter
	logger    *zap.Logger
	options   []Option
	now       func() time.Time

	mu       sync.Mutex
	services map[int]*registryEntry
}

// NewRegistry create a registry, options are applied to every created service
func NewRegistry(repos RepositoryFactory, alerter domain.Alerter, logger *zap.Logger, options ...Option) *Registry {
	return &Registry{
		repos:     repos,
		anonymous: repos(0),
		alerter:   alerter,
		logger:    logger,
		options:   options,
		now:       time.Now,
		services:  make(map[int]*registryEntry),
	}
}

// Get the learner's service. The first call for a learner creates it and preloads
// all progress and the summary before returning, concurrent callers wait for that
// preload unless their ctx ends first.
func (r *Registry) Get(ctx context.Context, learnerID int) *Service {
	if learnerID <= 0 {
		// signed out, nothing worth keeping
		return NewService(r.anonymous, StaticSession(0), r.alerter, r.logger, r.options...)
	}

	r.mu.Lock()
	e, ok := r.services[learnerID]
	if !ok {
		e = &registryEntry{
			svc:   NewService(r.repos(learnerID), StaticSession(learnerID), r.alerter, r.logger, r.options...),
			ready: make(chan struct{}),
		}
		r.services[learnerID] = e
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("create progress service", zap.Int("learner.id", learnerID))
		e.svc.Preload(ctx)
		close(e.ready)
		return e.svc
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
	}
	return e.svc
}

// Drop forget the learner's service, the next Get builds a fresh one
func (r *Registry) Drop(learnerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, learnerID)
}

// Evict drop services nobody asked for during maxIdle, returns how many were dropped
func (r *Registry) Evict(maxIdle time.Duration) int {
	deadline := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.services {
		if e.lastUsed.Before(deadline) {
			delete(r.services, id)
			evicted++
		}
	}
	return evicted
}

// EvictIdle run Evict every maxIdle/2 until ctx is done. A session refreshed on
// activity expires after maxIdle of silence, so pass the session timeout.
func (r *Registry) EvictIdle(ctx context.Context, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				r.logger.Debug("evict idle progress services", zap.Int("count", n))
			}
		}
	}
}

// Len number of live services
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.services)
}
