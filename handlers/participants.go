package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

type JoinRequest struct {
	Name string     `json:"name" validate:"required,max=100"`
	Role types.Role `json:"role" validate:"omitempty,oneof=teacher student"`
}

func JoinSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("JoinSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	body := JoinRequest{}
	if err := decode(rw, req, &body); err != nil {
		writeError(rw, req, err)
		return
	}

	clientId := ClientId(rw, req)
	if body.Role == types.RoleTeacher || clientId == s.TeacherId {
		teacherId, ok := requireTeacher(rw, req, s)
		if !ok {
			return
		}
		clientId = teacherId
	}

	p, err := core.ParticipantJoin(s, types.ParticipantConfig{ClientId: clientId, Name: body.Name, Role: body.Role})
	if err != nil {
		writeError(rw, req, err)
		return
	}
	if req.Header.Get(clientHeader) == "" {
		cookie := &CookieID{Id: p.ClientId, Name: p.Name}
		if err := cookie.SetCookie(rw); err != nil {
			logError(req, "Could not set id cookie", err)
		}
	}
	writeJSON(rw, http.StatusOK, p)
}

func ListParticipants(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("ListParticipants", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}

	participants, err := core.ParticipantList(s)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, participants)
}

// LeaveSession removes a participant. Students may remove themselves, the
// teacher may remove anybody.
func LeaveSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("LeaveSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	clientId := mux.Vars(req)["clientId"]
	if _, isTeacher := TeacherOf(req, s); !isTeacher && ClientId(rw, req) != clientId {
		writeError(rw, req, feather.ErrNotTeacher)
		return
	}

	if err := core.ParticipantLeave(s, clientId); err != nil {
		writeError(rw, req, err)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}
