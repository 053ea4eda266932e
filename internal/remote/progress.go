package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pot-code/learnforge-gateway/internal/domain"
)

var _ domain.ProgressRepository = &Client{}

// lessonToggle body of /progress/update and /progress/undo
type lessonToggle struct {
	UserID   int `json:"userId"`
	CourseID int `json:"courseId"`
	LessonID int `json:"lessonId"`
}

// GetUserProgress all progress records of a learner
func (cl *Client) GetUserProgress(ctx context.Context, learnerID int) ([]*domain.ProgressRecord, error) {
	var records []*domain.ProgressRecord
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/progress/user/%d", learnerID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetUserSummary aggregate progress of a learner
func (cl *Client) GetUserSummary(ctx context.Context, learnerID int) (*domain.ProgressSummary, error) {
	summary := new(domain.ProgressSummary)
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/progress/user/%d/summary", learnerID), nil, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// GetCourseProgress progress record of a learner in one course
func (cl *Client) GetCourseProgress(ctx context.Context, learnerID, courseID int) (*domain.ProgressRecord, error) {
	record := new(domain.ProgressRecord)
	if err := cl.do(ctx, http.MethodGet, fmt.Sprintf("/progress/user/%d/course/%d", learnerID, courseID), nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// MarkLessonComplete returns the updated record
func (cl *Client) MarkLessonComplete(ctx context.Context, learnerID, courseID, lessonID int) (*domain.ProgressRecord, error) {
	return cl.toggleLesson(ctx, "/progress/update", learnerID, courseID, lessonID)
}

// MarkLessonIncomplete returns the updated record
func (cl *Client) MarkLessonIncomplete(ctx context.Context, learnerID, courseID, lessonID int) (*domain.ProgressRecord, error) {
	return cl.toggleLesson(ctx, "/progress/undo", learnerID, courseID, lessonID)
}

func (cl *Client) toggleLesson(ctx context.Context, path string, learnerID, courseID, lessonID int) (*domain.ProgressRecord, error) {
	record := new(domain.ProgressRecord)
	body := &lessonToggle{UserID: learnerID, CourseID: courseID, LessonID: lessonID}
	if err := cl.do(ctx, http.MethodPost, path, body, record); err != nil {
		return nil, err
	}
	return record, nil
}
