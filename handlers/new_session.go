package handlers

import (
	"net/http"
	"time"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/feather/types"
)

type NewSessionRequest struct {
	Title           string `json:"title" validate:"max=200"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0,lte=1440"`
}

type NewSessionResponse struct {
	Session      *types.Session `json:"session"`
	TeacherToken string         `json:"teacher_token"`
	JoinURL      string         `json:"join_url"`
}

func joinURL(s *types.Session) string {
	return config.PublicURL + "/join/" + s.Code
}

func NewSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("NewSession", time.Now())

	body := NewSessionRequest{}
	if err := decode(rw, req, &body); err != nil {
		writeError(rw, req, err)
		return
	}

	teacherId := ClientId(rw, req)
	s, err := core.SessionNew(req.Context(), types.SessionConfig{
		TeacherId: teacherId,
		Title:     body.Title,
		Duration:  time.Duration(body.DurationMinutes) * time.Minute,
	})
	if err != nil {
		writeError(rw, req, err)
		return
	}

	token, err := NewTeacherToken(s)
	if err != nil {
		writeError(rw, req, err)
		return
	}

	writeJSON(rw, http.StatusCreated, NewSessionResponse{Session: s, TeacherToken: token, JoinURL: joinURL(s)})
}

func ListSessions(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("ListSessions", time.Now())

	if !ValidateToken(req) {
		rw.WriteHeader(http.StatusForbidden)
		return
	}

	sessions, err := core.SessionList()
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, sessions)
}
