package domain

import "context"

// ResourceModel practice link attached to a lesson
type ResourceModel struct {
	ID         int    `json:"resourceId"`
	LessonID   int    `json:"lessonId"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Platform   string `json:"platform"`
	Difficulty string `json:"difficulty"`
}

type ResourceRepository interface {
	GetLessonResources(ctx context.Context, lessonID int) ([]*ResourceModel, error)
	AutoFetchLessonResources(ctx context.Context, lessonID int) error
}

type ResourceUseCase interface {
	EnsureLessonResources(ctx context.Context, lessonID int) ([]*ResourceModel, error)
}
