// Package client talks to the session store over HTTP. Client implements
// timer.Store so the engine can mirror its transitions to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"honquedoro/internal/model"
	"honquedoro/internal/timer"
)

var (
	// ErrUnavailable is returned for transport failures and 5xx responses.
	ErrUnavailable = fmt.Errorf("client: %w", timer.ErrUnavailable)
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("client: unauthorized")
)

// Error is a non-2xx response from the store.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("store responded %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("store responded %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest:
		return timer.ErrConflict
	case e.Status == http.StatusNotFound:
		return timer.ErrNotFound
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL, token string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

type startRequest struct {
	Type            model.SessionType `json:"type"`
	DurationMinutes int               `json:"durationMinutes"`
}

func (c *Client) StartSession(ctx context.Context, mode timer.Mode, durationMinutes int) (timer.RemoteSession, error) {
	var session model.ActiveSession
	err := c.do(ctx, http.MethodPost, "/sessions/start", startRequest{
		Type:            ModeToType(mode),
		DurationMinutes: durationMinutes,
	}, &session)
	if err != nil {
		return timer.RemoteSession{}, err
	}
	return toRemote(session), nil
}

func (c *Client) ResumeSession(ctx context.Context, id int64) (timer.RemoteSession, error) {
	var session model.ActiveSession
	if err := c.do(ctx, http.MethodPost, "/sessions/resume/"+strconv.FormatInt(id, 10), nil, &session); err != nil {
		return timer.RemoteSession{}, err
	}
	return toRemote(session), nil
}

func (c *Client) PauseSession(ctx context.Context, id int64) (timer.RemoteSession, error) {
	var session model.ActiveSession
	if err := c.do(ctx, http.MethodPost, "/sessions/pause/"+strconv.FormatInt(id, 10), nil, &session); err != nil {
		return timer.RemoteSession{}, err
	}
	return toRemote(session), nil
}

func (c *Client) CompleteSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/sessions/complete/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) CancelSession(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/sessions/cancel/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) ActiveSession(ctx context.Context) (*timer.RemoteSession, error) {
	var state model.TimerState
	if err := c.do(ctx, http.MethodGet, "/sessions/active", nil, &state); err != nil {
		return nil, err
	}
	if !state.HasActiveSession || state.ActiveSession == nil {
		return nil, nil
	}
	remote := toRemote(*state.ActiveSession)
	return &remote, nil
}

func (c *Client) RecentSessions(ctx context.Context, count int) ([]model.SessionView, error) {
	var sessions []model.SessionView
	path := "/sessions/recent?count=" + strconv.Itoa(count)
	if err := c.do(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) Settings(ctx context.Context) (*model.UserSettings, error) {
	var settings model.UserSettings
	if err := c.do(ctx, http.MethodGet, "/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, settings model.UserSettings) (*model.UserSettings, error) {
	var updated model.UserSettings
	if err := c.do(ctx, http.MethodPut, "/settings", settings, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var dashboard model.Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (c *Client) Statistics(ctx context.Context) (*model.StatisticsPage, error) {
	var page model.StatisticsPage
	if err := c.do(ctx, http.MethodGet, "/statistics", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (string, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, path, err)
	}
	return nil
}

func readErrorResponse(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

func ModeToType(mode timer.Mode) model.SessionType {
	switch mode {
	case timer.ModeShortBreak:
		return model.SessionTypeShortBreak
	case timer.ModeLongBreak:
		return model.SessionTypeLongBreak
	default:
		return model.SessionTypeWork
	}
}

func TypeToMode(t model.SessionType) timer.Mode {
	switch t {
	case model.SessionTypeShortBreak:
		return timer.ModeShortBreak
	case model.SessionTypeLongBreak:
		return timer.ModeLongBreak
	default:
		return timer.ModeWork
	}
}

func toRemote(session model.ActiveSession) timer.RemoteSession {
	return timer.RemoteSession{
		ID:               session.ID,
		Mode:             TypeToMode(session.Type),
		Paused:           session.Status == model.SessionStatusPaused,
		RemainingSeconds: session.RemainingSeconds,
	}
}
