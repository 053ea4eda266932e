package progress_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/progress"
	"github.com/pot-code/learnforge-gateway/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// backend in-memory stand-in for the LearnForge progress API
type backend struct {
	mu         sync.Mutex
	hits       map[string]int
	completed  map[int][]int
	summary    domain.ProgressSummary
	failUpdate bool
	failLoad   bool
}

func newBackend() *backend {
	return &backend{
		hits:      make(map[string]int),
		completed: make(map[int][]int),
	}
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hits[r.Method+" "+r.URL.Path]++
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && (r.URL.Path == "/progress/update" || r.URL.Path == "/progress/undo"):
		if b.failUpdate {
			http.Error(w, "progress store unavailable", http.StatusInternalServerError)
			return
		}
		var body struct {
			UserID   int `json:"userId"`
			CourseID int `json:"courseId"`
			LessonID int `json:"lessonId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Path == "/progress/update" {
			b.complete(body.CourseID, body.LessonID)
		} else {
			b.undo(body.CourseID, body.LessonID)
		}
		writeJSON(w, b.record(body.CourseID))
	case len(parts) == 3 && parts[0] == "progress" && parts[1] == "user":
		if b.failLoad {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		var courses []int
		for cid := range b.completed {
			courses = append(courses, cid)
		}
		sort.Ints(courses)
		records := make([]*domain.ProgressRecord, 0, len(courses))
		for _, cid := range courses {
			records = append(records, b.record(cid))
		}
		writeJSON(w, records)
	case len(parts) == 4 && parts[3] == "summary":
		if b.failLoad {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, b.summary)
	case len(parts) == 5 && parts[3] == "course":
		cid, _ := strconv.Atoi(parts[4])
		writeJSON(w, b.record(cid))
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) complete(courseID, lessonID int) {
	for _, id := range b.completed[courseID] {
		if id == lessonID {
			return
		}
	}
	b.completed[courseID] = append(b.completed[courseID], lessonID)
}

func (b *backend) undo(courseID, lessonID int) {
	var kept []int
	for _, id := range b.completed[courseID] {
		if id != lessonID {
			kept = append(kept, id)
		}
	}
	b.completed[courseID] = kept
}

func (b *backend) record(courseID int) *domain.ProgressRecord {
	lessons := append([]int{}, b.completed[courseID]...)
	return &domain.ProgressRecord{
		Course:           domain.CourseModel{ID: courseID},
		CompletedLessons: lessons,
	}
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *backend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type alertRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (ar *alertRecorder) Alert(ctx context.Context, learnerID int, message string) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	ar.messages = append(ar.messages, message)
}

func (ar *alertRecorder) Messages() []string {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return append([]string{}, ar.messages...)
}

func newClient(t *testing.T, b http.Handler) *remote.Client {
	t.Helper()
	server := httptest.NewServer(http.StripPrefix("/api", b))
	t.Cleanup(server.Close)

	client, err := remote.NewClient(&remote.Config{BaseURL: server.URL + "/api"}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func newService(t *testing.T, b *backend, learnerID int, options ...progress.Option) (*progress.Service, *alertRecorder) {
	alerts := new(alertRecorder)
	svc := progress.NewService(newClient(t, b), progress.StaticSession(learnerID), alerts, zap.NewNop(), options...)
	return svc, alerts
}

func TestGetCourseProgress_CachesFirstFetch(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{5, 6}
	svc, _ := newService(t, b, 1)
	ctx := context.Background()

	first := svc.GetCourseProgress(ctx, 101)
	require.NotNil(t, first)
	assert.Equal(t, 1, b.count(http.MethodGet, "/progress/user/1/course/101"))

	second := svc.GetCourseProgress(ctx, 101)
	assert.Same(t, first, second)
	assert.Equal(t, 1, b.count(http.MethodGet, "/progress/user/1/course/101"))
}

func TestGetCourseProgress_LessonFlags(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{5, 6}
	svc, _ := newService(t, b, 1)

	record := svc.GetCourseProgress(context.Background(), 101)
	require.NotNil(t, record)
	assert.Equal(t, 101, record.Course.ID)
	assert.True(t, svc.IsLessonCompleted(101, 5))
	assert.True(t, svc.IsLessonCompleted(101, 6))
	assert.False(t, svc.IsLessonCompleted(101, 7))
}

func TestGetCourseProgress_SignedOut(t *testing.T) {
	b := newBackend()
	svc, _ := newService(t, b, 0)

	assert.Nil(t, svc.GetCourseProgress(context.Background(), 101))
	assert.Equal(t, 0, b.total())
}

func TestGetCourseProgress_FetchFailure(t *testing.T) {
	svc := progress.NewService(failingRepo{}, progress.StaticSession(1), nil, zap.NewNop())

	assert.Nil(t, svc.GetCourseProgress(context.Background(), 101))
	assert.False(t, svc.IsLessonCompleted(101, 5))
}

func TestIsLessonCompleted_NoRecordNeverFetches(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{5}
	svc, _ := newService(t, b, 1)

	for _, lessonID := range []int{-1, 0, 5, 1 << 20} {
		assert.False(t, svc.IsLessonCompleted(101, lessonID))
	}
	assert.Equal(t, 0, b.total())
}

func TestMarkLessonComplete(t *testing.T) {
	b := newBackend()
	b.summary = domain.ProgressSummary{TotalCourses: 1, TotalLessons: 3, CompletedLessons: 1}
	summaries := make(chan *domain.ProgressSummary, 1)
	svc, alerts := newService(t, b, 1, progress.WithSummaryHook(func(learnerID int, summary *domain.ProgressSummary) {
		summaries <- summary
	}))

	require.NoError(t, svc.MarkLessonComplete(context.Background(), 101, 5))
	assert.True(t, svc.IsLessonCompleted(101, 5))
	assert.Equal(t, 0, b.count(http.MethodGet, "/progress/user/1/course/101"))
	assert.Empty(t, alerts.Messages())

	select {
	case summary := <-summaries:
		assert.Equal(t, 1, summary.CompletedLessons)
	case <-time.After(2 * time.Second):
		t.Fatal("summary was not refreshed after the mutation")
	}
	assert.Equal(t, &b.summary, svc.Summary())
}

func TestMarkLessonIncomplete(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{5, 6}
	svc, _ := newService(t, b, 1)
	ctx := context.Background()

	require.NotNil(t, svc.GetCourseProgress(ctx, 101))
	require.True(t, svc.IsLessonCompleted(101, 5))

	require.NoError(t, svc.MarkLessonIncomplete(ctx, 101, 5))
	assert.False(t, svc.IsLessonCompleted(101, 5))
	assert.True(t, svc.IsLessonCompleted(101, 6))
	assert.NotContains(t, svc.GetCourseProgress(ctx, 101).CompletedLessons, 5)
	assert.Equal(t, 1, b.count(http.MethodGet, "/progress/user/1/course/101"))
}

func TestMarkLesson_SignedOut(t *testing.T) {
	b := newBackend()
	svc, alerts := newService(t, b, 0)
	ctx := context.Background()

	err := svc.MarkLessonComplete(ctx, 101, 5)
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))
	err = svc.MarkLessonIncomplete(ctx, 101, 5)
	assert.True(t, errors.Is(err, domain.ErrNotAuthenticated))

	assert.Equal(t, 0, b.total())
	assert.Equal(t, []string{domain.ErrNotAuthenticated.Error(), domain.ErrNotAuthenticated.Error()}, alerts.Messages())
}

func TestMarkLessonComplete_ServerError(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{5, 6}
	svc, alerts := newService(t, b, 1)
	ctx := context.Background()

	before := svc.GetCourseProgress(ctx, 101)
	require.NotNil(t, before)
	snapshot := append([]int{}, before.CompletedLessons...)

	b.mu.Lock()
	b.failUpdate = true
	b.mu.Unlock()

	err := svc.MarkLessonComplete(ctx, 101, 7)
	require.Error(t, err)
	var se *remote.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.HTTPStatusCode())

	after := svc.GetCourseProgress(ctx, 101)
	assert.Same(t, before, after)
	assert.Equal(t, snapshot, after.CompletedLessons)
	assert.False(t, svc.IsLessonCompleted(101, 7))

	messages := alerts.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "500")
}

func TestLoadAllProgress_ThenCacheHit(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{1}
	b.completed[102] = []int{2, 3}
	svc, _ := newService(t, b, 1)
	ctx := context.Background()

	svc.LoadAllProgress(ctx)
	require.Len(t, svc.Progress(), 2)

	record := svc.GetCourseProgress(ctx, 102)
	require.NotNil(t, record)
	assert.Equal(t, []int{2, 3}, record.CompletedLessons)
	assert.Equal(t, 0, b.count(http.MethodGet, "/progress/user/1/course/102"))
}

func TestLoadAllProgress_FailureKeepsCache(t *testing.T) {
	b := newBackend()
	b.completed[101] = []int{1}
	svc, _ := newService(t, b, 1)
	ctx := context.Background()

	svc.LoadAllProgress(ctx)
	svc.LoadSummary(ctx)
	require.Len(t, svc.Progress(), 1)
	summary := svc.Summary()
	require.NotNil(t, summary)

	b.mu.Lock()
	b.failLoad = true
	b.mu.Unlock()

	svc.LoadAllProgress(ctx)
	svc.LoadSummary(ctx)
	assert.Len(t, svc.Progress(), 1)
	assert.True(t, svc.IsLessonCompleted(101, 1))
	assert.Same(t, summary, svc.Summary())
}

func TestProgress_OrderedByCourse(t *testing.T) {
	b := newBackend()
	b.completed[300] = []int{1}
	b.completed[7] = []int{1}
	b.completed[42] = []int{1}
	svc, _ := newService(t, b, 1)

	svc.Preload(context.Background())

	var ids []int
	for _, record := range svc.Progress() {
		ids = append(ids, record.Course.ID)
	}
	assert.Equal(t, []int{7, 42, 300}, ids)
	assert.NotNil(t, svc.Summary())
}

type failingRepo struct {
	domain.ProgressRepository
}

func (failingRepo) GetCourseProgress(ctx context.Context, learnerID, courseID int) (*domain.ProgressRecord, error) {
	return nil, errors.New("connection refused")
}
