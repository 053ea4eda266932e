package resource

import (
	"context"
	"fmt"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// UseCaseImpl ...
type UseCaseImpl struct {
	ResourceRepository domain.ResourceRepository
	logger             *zap.Logger
}

var _ domain.ResourceUseCase = &UseCaseImpl{}

// NewUseCase ...
func NewUseCase(ResourceRepository domain.ResourceRepository, logger *zap.Logger) *UseCaseImpl {
	return &UseCaseImpl{
		ResourceRepository: ResourceRepository,
		logger:             logger,
	}
}

// EnsureLessonResources practice links of a lesson. When the backend has none yet it is asked
// to scrape them once and the list is read again, there is no second attempt.
func (ru *UseCaseImpl) EnsureLessonResources(ctx context.Context, lessonID int) ([]*domain.ResourceModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "ResourceUseCase.EnsureLessonResources", "service")
	defer apmSpan.End()

	repo := ru.ResourceRepository
	resources, err := repo.GetLessonResources(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources of lesson %d: %w", lessonID, err)
	}
	if len(resources) > 0 {
		return resources, nil
	}

	logging.ExtractLoggerFromContext(ctx, ru.logger).Debug("no resources, trigger auto fetch", zap.Int("lesson.id", lessonID))
	if err := repo.AutoFetchLessonResources(ctx, lessonID); err != nil {
		return nil, fmt.Errorf("failed to auto fetch resources of lesson %d: %w", lessonID, err)
	}
	resources, err = repo.GetLessonResources(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources of lesson %d: %w", lessonID, err)
	}
	if resources == nil {
		resources = []*domain.ResourceModel{}
	}
	return resources, nil
}
