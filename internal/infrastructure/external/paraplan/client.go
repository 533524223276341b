// Package paraplan implements the Paraplan CRM API client.
// This package handles all communication with the Paraplan platform:
// cookie-session login, student and subscription listings, attendance
// breakdowns and group details.
package paraplan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/attendance"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/group"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/period"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/student"
	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/subscription"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/circuitbreaker"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the production CRM address.
const DefaultBaseURL = "https://paraplancrm.ru"

// API paths relative to the base URL.
const (
	pathLogin    = "/api/public/login"
	pathUser     = "/api/open/user"
	pathStudents = "/api/open/students/min-info"
	pathStatuses = "/api/open/attendances/students/statuses"
)

// ClientConfig contains configuration for the Paraplan API client.
type ClientConfig struct {
	// BaseURL is the CRM base URL
	BaseURL string

	// Username and Password are the KIDS_APP account credentials
	Username string
	Password string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance
	CircuitBreakerConfig circuitbreaker.Config

	// MaxRetries is the retry attempt count for transient failures
	MaxRetries int

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(username, password string) ClientConfig {
	return ClientConfig{
		BaseURL:              DefaultBaseURL,
		Username:             username,
		Password:             password,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: circuitbreaker.DefaultConfig(),
		MaxRetries:           3,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Paraplan CRM API client. It implements the classifier's
// DataSource interface. Login must succeed before any data call.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	mapper      *Mapper

	// CSRF token management
	csrfToken string
	csrfMu    sync.RWMutex
}

// NewClient creates a new Paraplan API client. The returned client shares
// one cookie jar across all requests, which is how the CRM tracks the
// session.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Username == "" || config.Password == "" {
		return nil, shared.NewDomainError("paraplan", "NewClient",
			shared.ErrConfiguration, "username and password are required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Jar:     jar,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		mapper:      NewMapper(),
	}
	c.mapper.logger = config.Logger

	cbConfig := config.CircuitBreakerConfig
	cbConfig.IsFailure = func(err error) bool {
		// Auth failures are an account problem, not a service outage.
		return !shared.IsFatal(err)
	}
	cbConfig.OnStateChange = func(from, to circuitbreaker.State) {
		c.logger.Warn("paraplan circuit state changed",
			"from", from.String(), "to", to.String())
	}
	c.breaker = circuitbreaker.New(cbConfig)

	c.retrier = retry.New(
		retry.WithMaxAttempts(config.MaxRetries+1),
		retry.WithRetryIf(shared.IsRetryable),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying paraplan request",
				"attempt", attempt, "delay", delay.String(), "error", err)
		}),
	)

	return c, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// Login opens a CRM session: posts the credentials, verifies the session by
// fetching the user profile, and captures the CSRF cookie every mutating
// request must echo in the X-XSRF-TOKEN header. It also refreshes the
// attendance status dictionary; a failure there is logged and ignored since
// the mapper ships the known identifiers.
func (c *Client) Login(ctx context.Context) error {
	body := LoginRequestDTO{
		Username:   c.config.Username,
		Password:   c.config.Password,
		Locale:     "RU",
		LoginType:  "KIDS_APP",
		RememberMe: false,
		Captcha:    "",
	}

	if err := c.doSingleRequest(ctx, http.MethodPost, pathLogin, body, nil); err != nil {
		return shared.WrapError("paraplan", "Login", shared.ErrAuthentication, "login request failed", err)
	}

	// The login endpoint answers 200 even on bad credentials, so the
	// session is verified with a profile fetch.
	if err := c.doSingleRequest(ctx, http.MethodGet, pathUser, nil, nil); err != nil {
		return shared.WrapError("paraplan", "Login", shared.ErrAuthentication, "session verification failed", err)
	}

	token := c.findCSRFCookie()
	if token == "" {
		return shared.ErrParaplanCSRF
	}
	c.csrfMu.Lock()
	c.csrfToken = token
	c.csrfMu.Unlock()

	var statuses StatusesDTO
	if err := c.doSingleRequest(ctx, http.MethodGet, pathStatuses, nil, &statuses); err != nil {
		c.logger.Warn("status dictionary refresh failed, using built-in identifiers", "error", err)
	} else {
		c.mapper.LoadStatuses(statuses)
	}

	c.logger.Info("paraplan session established")
	return nil
}

// findCSRFCookie pulls the XSRF-TOKEN cookie out of the session jar.
func (c *Client) findCSRFCookie() string {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(base) {
		if cookie.Name == "XSRF-TOKEN" {
			return cookie.Value
		}
	}
	return ""
}

// ══════════════════════════════════════════════════════════════════════════════
// DATA SOURCE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// ListStudents fetches the full roster, including inactive students.
// Non-renewal reports need students whose subscriptions already lapsed.
func (c *Client) ListStudents(ctx context.Context) ([]student.Student, error) {
	var response StudentListResponseDTO
	req := StudentListRequestDTO{CurrentOnly: false}
	if err := c.doRequest(ctx, http.MethodPost, pathStudents, req, &response); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return c.mapper.StudentsFromDTO(response.StudentList), nil
}

// ListSubscriptions fetches one student's subscriptions, constrained to the
// given period. Open bounds are simply omitted from the query.
func (c *Client) ListSubscriptions(ctx context.Context, studentID string, p period.Period) ([]subscription.Record, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("size", "10")
	if start, ok := p.Start(); ok {
		params.Set("from.day", strconv.Itoa(start.Day()))
		params.Set("from.month", strconv.Itoa(int(start.Month())))
		params.Set("from.year", strconv.Itoa(start.Year()))
	}
	if end, ok := p.End(); ok {
		params.Set("to.day", strconv.Itoa(end.Day()))
		params.Set("to.month", strconv.Itoa(int(end.Month())))
		params.Set("to.year", strconv.Itoa(end.Year()))
	}

	path := fmt.Sprintf("/api/open/students/%s/subscriptions/paginated?%s",
		url.PathEscape(studentID), params.Encode())

	var page SubscriptionPageDTO
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("list subscriptions for %s: %w", studentID, err)
	}
	return c.mapper.SubscriptionsFromDTO(studentID, page), nil
}

// ListAttendanceEvents fetches every lesson of one calendar day: first the
// breakdown listing the attendance ids, then the attendance screen of each.
func (c *Client) ListAttendanceEvents(ctx context.Context, day time.Time, kind attendance.EventKind) ([]attendance.Event, error) {
	ids, err := c.listAttendanceIDs(ctx, day, kind)
	if err != nil {
		return nil, err
	}

	events := make([]attendance.Event, 0, len(ids))
	for _, id := range ids {
		path := fmt.Sprintf("/api/open/company/attendances/%s/forAttendanceScreen", url.PathEscape(id))
		var screen AttendanceScreenResponseDTO
		if err := c.doRequest(ctx, http.MethodGet, path, nil, &screen); err != nil {
			return nil, fmt.Errorf("attendance screen %s: %w", id, err)
		}
		events = append(events, c.mapper.EventFromDTO(screen.Attendance))
	}
	return events, nil
}

// listAttendanceIDs fetches the daily schedule breakdown for one lesson kind.
func (c *Client) listAttendanceIDs(ctx context.Context, day time.Time, kind attendance.EventKind) ([]string, error) {
	segment := "group"
	if kind == attendance.KindIndividual {
		segment = "individual"
	}

	params := url.Values{}
	params.Set("date.year", strconv.Itoa(day.Year()))
	params.Set("date.month", strconv.Itoa(int(day.Month())))
	params.Set("date.day", strconv.Itoa(day.Day()))
	for _, accessType := range []string{"ATTENDANCES", "LESSONS", "PREBOOKINGS", "SCHEDULE_MODIFICATIONS"} {
		params.Add("scheduleBreakdownAccessTypeSet", accessType)
	}

	path := fmt.Sprintf("/api/open/company/attendances/breakdown/%s?%s", segment, params.Encode())

	var response BreakdownResponseDTO
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("attendance breakdown %s %s: %w",
			segment, day.Format("2006-01-02"), err)
	}

	ids := make([]string, 0, len(response.Breakdown.AttendanceList))
	for _, a := range response.Breakdown.AttendanceList {
		if a.ID != "" {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

// GetGroupInfo fetches group details (type and teachers).
func (c *Client) GetGroupInfo(ctx context.Context, groupID string) (*group.Info, error) {
	path := fmt.Sprintf("/api/open/company/groups/%s", url.PathEscape(groupID))

	var dto GroupInfoDTO
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &dto); err != nil {
		return nil, fmt.Errorf("get group %s: %w", groupID, err)
	}
	info := c.mapper.GroupFromDTO(dto)
	return &info, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking,
// and retries. Authentication failures pass through without retrying.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
			err := c.doSingleRequest(ctx, method, path, body, result)
			if err != nil && shared.IsFatal(err) {
				return retry.Permanent(err)
			}
			return err
		})
	})
}

// doSingleRequest performs a single HTTP request against the CRM.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.csrfMu.RLock()
	if c.csrfToken != "" {
		req.Header.Set("X-XSRF-TOKEN", c.csrfToken)
	}
	c.csrfMu.RUnlock()

	if c.config.Debug {
		c.logger.Debug("paraplan api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.WrapError("paraplan", "Request", shared.ErrServiceUnavailable, "http request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return shared.WrapError("paraplan", "Request", shared.ErrServiceUnavailable, "read response failed", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return shared.NewDomainError("paraplan", "Request", shared.ErrAuthentication,
			fmt.Sprintf("%s answered %d", path, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		c.rateLimiter.Backoff()
		return shared.ErrParaplanRateLimited
	case resp.StatusCode >= 500:
		return shared.NewDomainError("paraplan", "Request", shared.ErrServiceUnavailable,
			fmt.Sprintf("%s answered %d", path, resp.StatusCode))
	case resp.StatusCode >= 400:
		return shared.NewDomainError("paraplan", "Request", shared.ErrInvalidFormat,
			fmt.Sprintf("%s answered %d: %s", path, resp.StatusCode, truncate(respBody, 200)))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return shared.NewDomainError("paraplan", "Parse", shared.ErrInvalidFormat,
				fmt.Sprintf("unmarshal %s response: %v", path, err))
		}
	}

	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// IsHealthy checks if the CRM session is still valid.
func (c *Client) IsHealthy(ctx context.Context) bool {
	return c.doSingleRequest(ctx, http.MethodGet, pathUser, nil, nil) == nil
}

// BreakerState exposes the circuit state for logging and introspection.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}
