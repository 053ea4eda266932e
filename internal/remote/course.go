package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pot-code/learnforge-gateway/internal/domain"
)

var _ domain.CourseRepository = &Client{}

func (cl *Client) ListCourses(ctx context.Context) ([]*domain.CourseModel, error) {
	var courses []*domain.CourseModel
	if err := cl.do(ctx, http.MethodGet, "/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (cl *Client) GetCourse(ctx context.Context, courseID int) (*domain.CourseModel, error) {
	course := new(domain.CourseModel)
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", courseID), nil, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (cl *Client) GetCourseLessons(ctx context.Context, courseID int) ([]*domain.LessonModel, error) {
	var lessons []*domain.LessonModel
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/lessons/course/%d", courseID), nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}
