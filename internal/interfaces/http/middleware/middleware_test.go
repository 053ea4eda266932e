package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAbortRequest(t *testing.T) {
	e := echo.New()
	e.Use(AbortRequest(&AbortRequestOption{Timeout: time.Minute}))
	e.GET("/", func(c echo.Context) error {
		deadline, ok := c.Request().Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestAbortRequest_Disabled(t *testing.T) {
	e := echo.New()
	e.Use(AbortRequest(&AbortRequestOption{Timeout: 0}))
	e.GET("/", func(c echo.Context) error {
		_, ok := c.Request().Context().Deadline()
		assert.False(t, ok)
		return c.NoContent(http.StatusOK)
	})
	serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestErrorHandling(t *testing.T) {
	var handled []error
	e := echo.New()
	e.Use(ErrorHandling(&ErrorHandlingOption{
		Handler: func(c echo.Context, traceID string, err error) {
			handled = append(handled, err)
			c.String(http.StatusInternalServerError, err.Error())
		},
		Logger: zap.NewNop(),
	}))
	e.GET("/error", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/panic", func(c echo.Context) error { panic("kaboom") })
	e.GET("/committed", func(c echo.Context) error {
		c.NoContent(http.StatusAccepted)
		return errors.New("late")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/error", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "kaboom", rec.Body.String())

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/committed", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, handled, 2)
}

func TestNoRouteMatched(t *testing.T) {
	e := echo.New()
	e.Use(NoRouteMatched())
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSetTraceLogger(t *testing.T) {
	e := echo.New()
	e.Use(SetTraceLogger(zap.NewNop()))
	e.GET("/", func(c echo.Context) error {
		assert.NotNil(t, c.Request().Context().Value(logging.ContextLoggerKey))
		return c.NoContent(http.StatusOK)
	})
	serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
}

func newTokenApp(ju *auth.JWTUtil, blacklist map[string]bool) *echo.Echo {
	e := echo.New()
	e.Use(VerifyToken(ju, &ValidateTokenOption{
		InBlackList: func(ctx context.Context, token string) (bool, error) {
			return blacklist[token], nil
		},
	}), RefreshToken(ju, &RefreshTokenOption{Threshold: 10 * time.Minute}))
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ju.GetContextToken(c).LearnerID)
	})
	return e
}

func tokenRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "lf_token", Value: token})
	}
	return req
}

func TestVerifyToken(t *testing.T) {
	ju := auth.NewJWTUtil("HS256", "secret", "lf_token", time.Hour)
	token, err := ju.Sign(&auth.AppTokenClaims{LearnerID: 7, StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}})
	require.NoError(t, err)
	blacklist := map[string]bool{}
	e := newTokenApp(ju, blacklist)

	rec := serve(e, tokenRequest(token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7\n", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	assert.Equal(t, http.StatusUnauthorized, serve(e, tokenRequest("")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, tokenRequest("garbage")).Code)

	blacklist[token] = true
	assert.Equal(t, http.StatusUnauthorized, serve(e, tokenRequest(token)).Code)
}

func TestRefreshToken_NearExpiry(t *testing.T) {
	ju := auth.NewJWTUtil("HS256", "secret", "lf_token", time.Hour)
	token, err := ju.Sign(&auth.AppTokenClaims{LearnerID: 7, StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Minute).Unix()}})
	require.NoError(t, err)

	rec := serve(newTokenApp(ju, nil), tokenRequest(token))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	claims, err := ju.Validate(cookies[0].Value)
	require.NoError(t, err)
	assert.True(t, claims.TimeRemaining() > 50*time.Minute)
	assert.Equal(t, 7, claims.LearnerID)
}
