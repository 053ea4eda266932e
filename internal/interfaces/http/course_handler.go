package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learnforge-gateway/internal/progress"
	"go.uber.org/zap"
)

type CourseHandler struct {
	courseUseCase   domain.CourseUseCase
	resourceUseCase domain.ResourceUseCase
	registry        *progress.Registry
	jwtUtil         *auth.JWTUtil
	validator       validate.Validator
	logger          *zap.Logger
}

func NewCourseHandler(
	CourseUseCase domain.CourseUseCase,
	ResourceUseCase domain.ResourceUseCase,
	Registry *progress.Registry,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
	logger *zap.Logger,
) *CourseHandler {
	return &CourseHandler{CourseUseCase, ResourceUseCase, Registry, JWTUtil, Validator, logger}
}

func (ch *CourseHandler) HandleListCourses(c echo.Context) error {
	courses, err := ch.courseUseCase.ListCourses(c.Request().Context())
	if err != nil {
		ch.logError(c, "failed to list courses", err)
		return badGateway(c, err)
	}
	return c.JSON(http.StatusOK, courses)
}

// HandleGetCourseDetail course page with per lesson completion
func (ch *CourseHandler) HandleGetCourseDetail(c echo.Context) error {
	courseID, errs := intParam(c, ch.validator, "courseId")
	if errs != nil {
		return badParams(c, errs)
	}

	ctx := c.Request().Context()
	svc := ch.registry.Get(ctx, learnerID(c, ch.jwtUtil))
	detail, err := ch.courseUseCase.GetCourseDetail(ctx, svc, courseID)
	if err != nil {
		ch.logError(c, "failed to get course detail", err, zap.Int("course.id", courseID))
		return badGateway(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// HandleGetLessonResources practice links, auto fetched by the backend when there are none
func (ch *CourseHandler) HandleGetLessonResources(c echo.Context) error {
	lessonID, errs := intParam(c, ch.validator, "lessonId")
	if errs != nil {
		return badParams(c, errs)
	}

	resources, err := ch.resourceUseCase.EnsureLessonResources(c.Request().Context(), lessonID)
	if err != nil {
		ch.logError(c, "failed to get lesson resources", err, zap.Int("lesson.id", lessonID))
		return badGateway(c, err)
	}
	return c.JSON(http.StatusOK, resources)
}

func (ch *CourseHandler) logError(c echo.Context, msg string, err error, fields ...zap.Field) {
	logging.ExtractLoggerFromContext(c.Request().Context(), ch.logger).Error(msg, append(fields, zap.Error(err))...)
}
