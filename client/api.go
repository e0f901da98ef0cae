package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/feather-classroom/feather/feather/types"
)

const (
	clientHeader       = "X-Feather-Client"
	teacherTokenHeader = "X-Feather-Teacher-Token"
)

// APIError is returned for non 2xx responses.
type APIError struct {
	Status  int
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feather: %d %s", e.Status, e.Message)
}

// API wraps the REST endpoints of a feather server for a single client id.
type API struct {
	BaseURL      string
	ClientId     string
	TeacherToken string
	HTTP         *http.Client
}

func NewAPI(baseURL, clientId string) *API {
	return &API{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		ClientId: clientId,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

type CreatedSession struct {
	Session      *types.Session `json:"session"`
	TeacherToken string         `json:"teacher_token"`
	JoinURL      string         `json:"join_url"`
}

// NewSession creates a session taught by the API client. The returned token
// is kept for the following teacher calls.
func (a *API) NewSession(ctx context.Context, title string, duration time.Duration) (*CreatedSession, error) {
	body := map[string]interface{}{"title": title, "duration_minutes": int(duration / time.Minute)}
	created := &CreatedSession{}
	if err := a.call(ctx, "POST", "/sessions", body, created); err != nil {
		return nil, err
	}
	a.TeacherToken = created.TeacherToken
	return created, nil
}

func (a *API) SessionByCode(ctx context.Context, code string) (*types.Session, error) {
	s := &types.Session{}
	if err := a.call(ctx, "GET", "/codes/"+code, nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *API) Start(ctx context.Context, sessionId string) (*types.Session, error) {
	s := &types.Session{}
	if err := a.call(ctx, "POST", "/sessions/"+sessionId+"/start", nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *API) End(ctx context.Context, sessionId string) (*types.Session, error) {
	s := &types.Session{}
	if err := a.call(ctx, "POST", "/sessions/"+sessionId+"/end", nil, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *API) Join(ctx context.Context, sessionId, name string) (*types.Participant, error) {
	p := &types.Participant{}
	if err := a.call(ctx, "POST", "/sessions/"+sessionId+"/participants", map[string]string{"name": name}, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *API) PushQuestion(ctx context.Context, sessionId string, conf types.QuestionConfig) (*types.Question, error) {
	q := &types.Question{}
	if err := a.call(ctx, "POST", "/sessions/"+sessionId+"/questions", conf, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (a *API) State(ctx context.Context, sessionId string) (*types.Snapshot, error) {
	snapshot := &types.Snapshot{}
	if err := a.call(ctx, "GET", "/sessions/"+sessionId+"/state", nil, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (a *API) call(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(clientHeader, a.ClientId)
	if a.TeacherToken != "" {
		req.Header.Set(teacherTokenHeader, a.TeacherToken)
	}

	resp, err := a.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
