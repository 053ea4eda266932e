package domain

import "context"

// ProgressRecord completed lessons of one learner in one course
type ProgressRecord struct {
	Course           CourseModel `json:"course"`
	CompletedLessons []int       `json:"completedLessons"`
}

// HasLesson report whether lessonID is in the completed set
func (pr *ProgressRecord) HasLesson(lessonID int) bool {
	for _, id := range pr.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// ProgressSummary aggregate counts across all courses of a learner
type ProgressSummary struct {
	TotalCourses     int `json:"totalCourses"`
	CompletedCourses int `json:"completedCourses"`
	TotalLessons     int `json:"totalLessons"`
	CompletedLessons int `json:"completedLessons"`
}

// Session provides the learner id of the signed-in user
type Session interface {
	LearnerID() (int, bool)
}

// Alerter delivers a user facing failure message
type Alerter interface {
	Alert(ctx context.Context, learnerID int, message string)
}

type ProgressRepository interface {
	GetUserProgress(ctx context.Context, learnerID int) ([]*ProgressRecord, error)
	GetUserSummary(ctx context.Context, learnerID int) (*ProgressSummary, error)
	GetCourseProgress(ctx context.Context, learnerID, courseID int) (*ProgressRecord, error)
	MarkLessonComplete(ctx context.Context, learnerID, courseID, lessonID int) (*ProgressRecord, error)
	MarkLessonIncomplete(ctx context.Context, learnerID, courseID, lessonID int) (*ProgressRecord, error)
}

type ProgressUseCase interface {
	LoadAllProgress(ctx context.Context)
	LoadSummary(ctx context.Context)
	GetCourseProgress(ctx context.Context, courseID int) *ProgressRecord
	MarkLessonComplete(ctx context.Context, courseID, lessonID int) error
	MarkLessonIncomplete(ctx context.Context, courseID, lessonID int) error
	IsLessonCompleted(courseID, lessonID int) bool
	Summary() *ProgressSummary
	Progress() []*ProgressRecord
}
