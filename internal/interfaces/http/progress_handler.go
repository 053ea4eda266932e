package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learnforge-gateway/internal/progress"
)

type ProgressHandler struct {
	registry  *progress.Registry
	jwtUtil   *auth.JWTUtil
	validator validate.Validator
}

func NewProgressHandler(Registry *progress.Registry, JWTUtil *auth.JWTUtil, Validator validate.Validator) *ProgressHandler {
	return &ProgressHandler{Registry, JWTUtil, Validator}
}

type lessonTogglePost struct {
	CourseID int `json:"courseId" validate:"required,min=1"`
	LessonID int `json:"lessonId" validate:"required,min=1"`
}

type progressView struct {
	Progress []*domain.ProgressRecord `json:"progress"`
	Summary  *domain.ProgressSummary  `json:"summary"`
}

func (ph *ProgressHandler) service(c echo.Context) *progress.Service {
	return ph.registry.Get(c.Request().Context(), learnerID(c, ph.jwtUtil))
}

// HandleGetProgress every cached record of the learner
func (ph *ProgressHandler) HandleGetProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, ph.service(c).Progress())
}

// HandleGetSummary cached summary, null before the first successful load
func (ph *ProgressHandler) HandleGetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, ph.service(c).Summary())
}

// HandleGetCourseProgress null when the record could not be fetched
func (ph *ProgressHandler) HandleGetCourseProgress(c echo.Context) error {
	courseID, errs := intParam(c, ph.validator, "courseId")
	if errs != nil {
		return badParams(c, errs)
	}
	return c.JSON(http.StatusOK, ph.service(c).GetCourseProgress(c.Request().Context(), courseID))
}

func (ph *ProgressHandler) HandleGetLessonState(c echo.Context) error {
	courseID, errs := intParam(c, ph.validator, "courseId")
	if errs != nil {
		return badParams(c, errs)
	}
	lessonID, errs := intParam(c, ph.validator, "lessonId")
	if errs != nil {
		return badParams(c, errs)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"courseId":  courseID,
		"lessonId":  lessonID,
		"completed": ph.service(c).IsLessonCompleted(courseID, lessonID),
	})
}

func (ph *ProgressHandler) HandleComplete(c echo.Context) error {
	return ph.toggle(c, (*progress.Service).MarkLessonComplete)
}

func (ph *ProgressHandler) HandleIncomplete(c echo.Context) error {
	return ph.toggle(c, (*progress.Service).MarkLessonIncomplete)
}

type toggleMethod func(svc *progress.Service, ctx context.Context, courseID, lessonID int) error

func (ph *ProgressHandler) toggle(c echo.Context, method toggleMethod) error {
	post := new(lessonTogglePost)
	if err := c.Bind(post); err != nil {
		return c.JSON(http.StatusUnprocessableEntity,
			NewRESTStandardError(http.StatusUnprocessableEntity, "Failed to bind lesson entity").SetTraceID(traceID(c)))
	}
	if errs := ph.validator.Struct(post); errs != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", errs).SetTraceID(traceID(c)))
	}

	ctx := c.Request().Context()
	svc := ph.service(c)
	if err := method(svc, ctx, post.CourseID, post.LessonID); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return c.JSON(http.StatusUnauthorized,
				NewRESTStandardError(http.StatusUnauthorized, err.Error()).SetTraceID(traceID(c)))
		}
		return badGateway(c, err)
	}
	// cache hit, the record was just replaced by the server answer
	return c.JSON(http.StatusOK, svc.GetCourseProgress(ctx, post.CourseID))
}

// HandleReload refetch everything from the backend
func (ph *ProgressHandler) HandleReload(c echo.Context) error {
	svc := ph.service(c)
	svc.Preload(c.Request().Context())
	return c.JSON(http.StatusOK, &progressView{
		Progress: svc.Progress(),
		Summary:  svc.Summary(),
	})
}
