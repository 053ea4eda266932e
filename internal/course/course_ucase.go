package course

import (
	"context"
	"math"

	"github.com/pot-code/learnforge-gateway/internal/domain"
	"go.elastic.co/apm"
	"golang.org/x/sync/errgroup"
)

// UseCaseImpl course catalog joined with learner progress
type UseCaseImpl struct {
	CourseRepository domain.CourseRepository
}

var _ domain.CourseUseCase = &UseCaseImpl{}

// NewUseCase ...
func NewUseCase(CourseRepository domain.CourseRepository) *UseCaseImpl {
	return &UseCaseImpl{
		CourseRepository: CourseRepository,
	}
}

// ListCourses ...
func (cu *UseCaseImpl) ListCourses(ctx context.Context) ([]*domain.CourseModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCase.ListCourses", "service")
	defer apmSpan.End()

	courses, err := cu.CourseRepository.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*domain.CourseModel{}
	}
	return courses, nil
}

// GetCourseDetail course with its lessons flagged by the learner's completion state
func (cu *UseCaseImpl) GetCourseDetail(ctx context.Context, progress domain.ProgressUseCase, courseID int) (*domain.CourseDetailModel, error) {
	apmSpan, ctx := apm.StartSpan(ctx, "CourseUseCase.GetCourseDetail", "service")
	defer apmSpan.End()

	var (
		course  *domain.CourseModel
		lessons []*domain.LessonModel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		course, err = cu.CourseRepository.GetCourse(gctx, courseID)
		return
	})
	g.Go(func() (err error) {
		lessons, err = cu.CourseRepository.GetCourseLessons(gctx, courseID)
		return
	})
	// progress is cache first, signed out learners get nil and every lesson stays incomplete
	g.Go(func() error {
		progress.GetCourseProgress(gctx, courseID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &domain.CourseDetailModel{
		Course:  course,
		Lessons: make([]*domain.LessonState, 0, len(lessons)),
	}
	for _, lesson := range lessons {
		if lesson == nil {
			continue
		}
		done := progress.IsLessonCompleted(courseID, lesson.ID)
		if done {
			detail.Completed++
		}
		detail.Lessons = append(detail.Lessons, &domain.LessonState{
			LessonModel: *lesson,
			Completed:   done,
		})
	}
	detail.Percentage = Percentage(detail.Completed, len(detail.Lessons))
	return detail, nil
}

// Percentage completed over total in percent rounded to two decimals, 0 for an empty course
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}
