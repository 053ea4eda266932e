package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRepo struct {
	// answers returned by successive GetLessonResources calls
	answers    [][]*domain.ResourceModel
	getErr     error
	fetchErr   error
	gets       int
	autoFetchs int
}

func (sr *stubRepo) GetLessonResources(ctx context.Context, lessonID int) ([]*domain.ResourceModel, error) {
	sr.gets++
	if sr.getErr != nil {
		return nil, sr.getErr
	}
	if len(sr.answers) == 0 {
		return nil, nil
	}
	next := sr.answers[0]
	sr.answers = sr.answers[1:]
	return next, nil
}

func (sr *stubRepo) AutoFetchLessonResources(ctx context.Context, lessonID int) error {
	sr.autoFetchs++
	return sr.fetchErr
}

func twoSum() *domain.ResourceModel {
	return &domain.ResourceModel{ID: 1, LessonID: 8, Title: "Two Sum", Platform: "LeetCode"}
}

func TestEnsureLessonResources_Present(t *testing.T) {
	repo := &stubRepo{answers: [][]*domain.ResourceModel{{twoSum()}}}
	uc := NewUseCase(repo, zap.NewNop())

	resources, err := uc.EnsureLessonResources(context.Background(), 8)
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	assert.Equal(t, 0, repo.autoFetchs)
	assert.Equal(t, 1, repo.gets)
}

func TestEnsureLessonResources_EmptyTriggersAutoFetchOnce(t *testing.T) {
	repo := &stubRepo{answers: [][]*domain.ResourceModel{{}, {twoSum()}}}
	uc := NewUseCase(repo, zap.NewNop())

	resources, err := uc.EnsureLessonResources(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", resources[0].Title)
	assert.Equal(t, 1, repo.autoFetchs)
	assert.Equal(t, 2, repo.gets)
}

func TestEnsureLessonResources_StillEmptyAfterFetch(t *testing.T) {
	repo := &stubRepo{}
	uc := NewUseCase(repo, zap.NewNop())

	resources, err := uc.EnsureLessonResources(context.Background(), 8)
	require.NoError(t, err)
	assert.NotNil(t, resources)
	assert.Empty(t, resources)
	assert.Equal(t, 1, repo.autoFetchs)
	assert.Equal(t, 2, repo.gets)
}

func TestEnsureLessonResources_Errors(t *testing.T) {
	boom := errors.New("boom")

	repo := &stubRepo{getErr: boom}
	_, err := NewUseCase(repo, zap.NewNop()).EnsureLessonResources(context.Background(), 8)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, repo.autoFetchs)

	repo = &stubRepo{fetchErr: boom}
	_, err = NewUseCase(repo, zap.NewNop()).EnsureLessonResources(context.Background(), 8)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, repo.gets)
}
