package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.elastic.co/apm"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// StatusError non 2xx answer from the backend
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (se *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", se.Method, se.Path, se.StatusCode, http.StatusText(se.StatusCode))
	if se.Body != "" {
		msg += ": " + se.Body
	}
	return msg
}

// HTTPStatusCode .
func (se *StatusError) HTTPStatusCode() int {
	return se.StatusCode
}

// Config client options
type Config struct {
	BaseURL string
	Timeout time.Duration // zero means no timeout
	// HTTPClient overrides the default client
	HTTPClient *http.Client
}

// Client LearnForge REST backend client. The root client carries no cookies,
// ForLearner derives one holding the learner's own cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient create a backend client
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  logger,
	}, nil
}

// ForLearner a client sharing transport and timeout with cl but keeping cookies
// set by the backend in a jar of its own, so sessions never cross learners
func (cl *Client) ForLearner(learnerID int) *Client {
	jar, _ := cookiejar.New(nil) // only fails on a bad public suffix list
	hc := *cl.http
	hc.Jar = jar
	return &Client{
		baseURL: cl.baseURL,
		http:    &hc,
		logger:  cl.logger.With(zap.Int("learner.id", learnerID)),
	}
}

func (cl *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	span, ctx := apm.StartSpan(ctx, method+" "+path, "external.http")
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	startTime := time.Now()
	res, err := cl.http.Do(req)
	if err != nil {
		cl.logger.Debug("backend call failed", zap.String("http.request.method", method),
			zap.String("url.path", path), zap.Error(err))
		return err
	}
	defer res.Body.Close()

	cl.logger.Debug("backend call", zap.String("http.request.method", method),
		zap.String("url.path", path),
		zap.Int("http.response.status_code", res.StatusCode),
		zap.Duration("http.time", time.Since(startTime)))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := ioutil.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		io.Copy(ioutil.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
