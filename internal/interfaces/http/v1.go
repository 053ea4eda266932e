package http

import (
	"github.com/labstack/echo/v4"
)

func v1Endpoint(
	UserHandler *UserHandler,
	ProgressHandler *ProgressHandler,
	CourseHandler *CourseHandler,
	NotifyHandler *NotifyHandler,
	jwtMiddleware echo.MiddlewareFunc,
	refreshMiddleware echo.MiddlewareFunc,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	return &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix: "/user",
				routes: []*route{
					{"POST", "/login", UserHandler.HandleSignIn, nil},
					{"PUT", "/sign-out", UserHandler.HandleSignOut, nil},
					{"POST", "/sign-up", UserHandler.HandleSignUp, nil},
					{"GET", "/exists", UserHandler.HandleUserExists, nil},
				},
			},
			{
				prefix:      "/progress",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware},
				routes: []*route{
					{"GET", "", ProgressHandler.HandleGetProgress, nil},
					{"GET", "/summary", ProgressHandler.HandleGetSummary, nil},
					{"GET", "/course/:courseId", ProgressHandler.HandleGetCourseProgress, nil},
					{"GET", "/course/:courseId/lesson/:lessonId", ProgressHandler.HandleGetLessonState, nil},
					{"POST", "/complete", ProgressHandler.HandleComplete, nil},
					{"POST", "/incomplete", ProgressHandler.HandleIncomplete, nil},
					{"POST", "/reload", ProgressHandler.HandleReload, nil},
				},
			},
			{
				prefix:      "/course",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware},
				routes: []*route{
					{"GET", "", CourseHandler.HandleListCourses, nil},
					{"GET", "/:courseId", CourseHandler.HandleGetCourseDetail, nil},
				},
			},
			{
				prefix:      "/resource",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware, refreshMiddleware},
				routes: []*route{
					{"GET", "/lesson/:lessonId", CourseHandler.HandleGetLessonResources, nil},
				},
			},
			{
				prefix:      "/ws",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware},
				routes: []*route{
					{"GET", "/notify", NotifyHandler.HandleNotify, nil},
				},
			},
		},
	}
}
