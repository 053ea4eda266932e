package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SummaryHook called after every successful summary load
type SummaryHook func(learnerID int, summary *domain.ProgressSummary)

// Option configures a Service
type Option func(*Service)

// WithSummaryHook register fn as the summary hook
func WithSummaryHook(fn SummaryHook) Option {
	return func(s *Service) {
		s.onSummary = fn
	}
}

// StaticSession session bound to a fixed learner id, zero or negative means signed out
type StaticSession int

// LearnerID implements domain.Session
func (ss StaticSession) LearnerID() (int, bool) {
	return int(ss), ss > 0
}

// Service local mirror of one learner's server side progress.
//
// Cached records are never modified in place, every write swaps in a new map.
type Service struct {
	repo      domain.ProgressRepository
	session   domain.Session
	alerter   domain.Alerter
	logger    *zap.Logger
	onSummary SummaryHook

	mu      sync.RWMutex
	records map[int]*domain.ProgressRecord
	summary *domain.ProgressSummary
}

var _ domain.ProgressUseCase = &Service{}

// NewService create a progress service, alerter may be nil
func NewService(
	repo domain.ProgressRepository,
	session domain.Session,
	alerter domain.Alerter,
	logger *zap.Logger,
	options ...Option,
) *Service {
	s := &Service{
		repo:    repo,
		session: session,
		alerter: alerter,
		logger:  logger,
		records: make(map[int]*domain.ProgressRecord),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Preload run LoadAllProgress and LoadSummary concurrently and wait for both
func (s *Service) Preload(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.LoadAllProgress(gctx)
		return nil
	})
	g.Go(func() error {
		s.LoadSummary(gctx)
		return nil
	})
	g.Wait()
}

// LoadAllProgress replace the cached map with every record the backend has for the learner
func (s *Service) LoadAllProgress(ctx context.Context) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressService.LoadAllProgress", "service")
	defer apmSpan.End()

	learnerID, ok := s.session.LearnerID()
	if !ok {
		return
	}
	records, err := s.repo.GetUserProgress(ctx, learnerID)
	if err != nil {
		s.loggerFrom(ctx).Error("failed to load progress", zap.Int("learner.id", learnerID), zap.Error(err))
		return
	}

	next := make(map[int]*domain.ProgressRecord, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		next[record.Course.ID] = record
	}
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
}

// LoadSummary replace the cached summary
func (s *Service) LoadSummary(ctx context.Context) {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressService.LoadSummary", "service")
	defer apmSpan.End()

	learnerID, ok := s.session.LearnerID()
	if !ok {
		return
	}
	summary, err := s.repo.GetUserSummary(ctx, learnerID)
	if err != nil {
		s.loggerFrom(ctx).Error("failed to load progress summary", zap.Int("learner.id", learnerID), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	if s.onSummary != nil {
		s.onSummary(learnerID, summary)
	}
}

// GetCourseProgress cached record of the course, fetched and cached on a miss.
// Returns nil when signed out or when the fetch fails.
func (s *Service) GetCourseProgress(ctx context.Context, courseID int) *domain.ProgressRecord {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressService.GetCourseProgress", "service")
	defer apmSpan.End()

	learnerID, ok := s.session.LearnerID()
	if !ok {
		return nil
	}
	if record := s.lookup(courseID); record != nil {
		return record
	}

	// concurrent misses are not coalesced
	record, err := s.repo.GetCourseProgress(ctx, learnerID, courseID)
	if err != nil {
		s.loggerFrom(ctx).Error("failed to fetch course progress", zap.Int("learner.id", learnerID),
			zap.Int("course.id", courseID), zap.Error(err))
		return nil
	}
	s.store(courseID, record)
	return record
}

// MarkLessonComplete record the lesson as done, the cached record is replaced by the server answer
func (s *Service) MarkLessonComplete(ctx context.Context, courseID, lessonID int) error {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressService.MarkLessonComplete", "service")
	defer apmSpan.End()

	return s.toggleLesson(ctx, courseID, lessonID, s.repo.MarkLessonComplete)
}

// MarkLessonIncomplete inverse of MarkLessonComplete
func (s *Service) MarkLessonIncomplete(ctx context.Context, courseID, lessonID int) error {
	apmSpan, ctx := apm.StartSpan(ctx, "ProgressService.MarkLessonIncomplete", "service")
	defer apmSpan.End()

	return s.toggleLesson(ctx, courseID, lessonID, s.repo.MarkLessonIncomplete)
}

type toggleFunc func(ctx context.Context, learnerID, courseID, lessonID int) (*domain.ProgressRecord, error)

func (s *Service) toggleLesson(ctx context.Context, courseID, lessonID int, toggle toggleFunc) error {
	learnerID, ok := s.session.LearnerID()
	if !ok {
		s.alert(ctx, learnerID, domain.ErrNotAuthenticated.Error())
		return domain.ErrNotAuthenticated
	}

	record, err := toggle(ctx, learnerID, courseID, lessonID)
	if err != nil {
		s.loggerFrom(ctx).Error("failed to update lesson progress", zap.Int("learner.id", learnerID),
			zap.Int("course.id", courseID), zap.Int("lesson.id", lessonID), zap.Error(err))
		s.alert(ctx, learnerID, err.Error())
		return fmt.Errorf("failed to update lesson %d of course %d: %w", lessonID, courseID, err)
	}
	s.store(courseID, record)

	// callers are not joined with the refresh, the summary may be stale until it lands
	go s.LoadSummary(context.Background())
	return nil
}

// IsLessonCompleted lookup against the cache only
func (s *Service) IsLessonCompleted(courseID, lessonID int) bool {
	record := s.lookup(courseID)
	if record == nil {
		return false
	}
	return record.HasLesson(lessonID)
}

// Summary cached summary, nil until the first successful load
func (s *Service) Summary() *domain.ProgressSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Progress snapshot of the cached records ordered by course id
func (s *Service) Progress() []*domain.ProgressRecord {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()

	result := make([]*domain.ProgressRecord, 0, len(records))
	for _, record := range records {
		result = append(result, record)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Course.ID < result[j].Course.ID
	})
	return result
}

func (s *Service) lookup(courseID int) *domain.ProgressRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[courseID]
}

// store copy the map with courseID pointing at record and swap it in
func (s *Service) store(courseID int, record *domain.ProgressRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int]*domain.ProgressRecord, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[courseID] = record
	s.records = next
}

func (s *Service) alert(ctx context.Context, learnerID int, message string) {
	if s.alerter != nil {
		s.alerter.Alert(ctx, learnerID, message)
	}
}

func (s *Service) loggerFrom(ctx context.Context) *zap.Logger {
	return logging.ExtractLoggerFromContext(ctx, s.logger)
}
