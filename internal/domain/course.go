package domain

import "context"

type CourseModel struct {
	ID           int     `json:"courseId"`
	Title        string  `json:"title,omitempty"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category,omitempty"`
	Difficulty   string  `json:"difficulty,omitempty"`
	Instructor   string  `json:"instructor,omitempty"`
	Duration     string  `json:"duration,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	StudentCount int     `json:"studentCount,omitempty"`
}

type LessonModel struct {
	ID       int    `json:"lessonId"`
	CourseID int    `json:"courseId"`
	Name     string `json:"name"`
	VideoURL string `json:"videoUrl"`
	Duration string `json:"duration"`
}

// LessonState lesson annotated with the learner's completion flag
type LessonState struct {
	LessonModel
	Completed bool `json:"completed"`
}

// CourseDetailModel course page payload
type CourseDetailModel struct {
	Course     *CourseModel   `json:"course"`
	Lessons    []*LessonState `json:"lessons"`
	Completed  int            `json:"completed"`
	Percentage float64        `json:"percentage"`
}

type CourseRepository interface {
	ListCourses(ctx context.Context) ([]*CourseModel, error)
	GetCourse(ctx context.Context, courseID int) (*CourseModel, error)
	GetCourseLessons(ctx context.Context, courseID int) ([]*LessonModel, error)
}

type CourseUseCase interface {
	ListCourses(ctx context.Context) ([]*CourseModel, error)
	GetCourseDetail(ctx context.Context, progress ProgressUseCase, courseID int) (*CourseDetailModel, error)
}
