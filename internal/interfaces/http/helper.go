package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/validate"
)

func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// learnerID of the signed-in user, 0 when the request carries no claims
func learnerID(c echo.Context, ju *auth.JWTUtil) int {
	if claims := ju.GetContextToken(c); claims != nil {
		return claims.LearnerID
	}
	return 0
}

// intParam parse a positive integer path parameter
func intParam(c echo.Context, v validate.Validator, name string) (int, []*validate.FieldError) {
	raw := c.Param(name)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, []*validate.FieldError{validate.NewFieldError(name, fmt.Sprintf("%s must be an integer, got %q", name, raw))}
	}
	if errs := v.Positive(name, value); errs != nil {
		return 0, errs
	}
	return value, nil
}

func badParams(c echo.Context, errs []*validate.FieldError) error {
	return c.JSON(http.StatusBadRequest,
		NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs).SetTraceID(traceID(c)))
}

func badGateway(c echo.Context, err error) error {
	return c.JSON(http.StatusBadGateway,
		NewRESTStandardError(http.StatusBadGateway, err.Error()).SetTraceID(traceID(c)))
}
