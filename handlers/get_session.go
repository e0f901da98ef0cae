package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

// loadSession resolves the {sessionId} route variable. It writes the error
// response itself when the session cannot be loaded.
func loadSession(rw http.ResponseWriter, req *http.Request) (*types.Session, bool) {
	sessionId := mux.Vars(req)["sessionId"]

	s, err := core.SessionGet(sessionId)
	if err != nil {
		writeError(rw, req, err)
		return nil, false
	}
	return s, true
}

// requireTeacher checks the teacher token of the request against the session.
func requireTeacher(rw http.ResponseWriter, req *http.Request, s *types.Session) (string, bool) {
	teacherId, ok := TeacherOf(req, s)
	if !ok {
		writeError(rw, req, feather.ErrNotTeacher)
		return "", false
	}
	return teacherId, true
}

func GetSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	writeJSON(rw, http.StatusOK, s)
}

func GetSessionByCode(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetSessionByCode", time.Now())

	s, err := core.SessionFindByCode(mux.Vars(req)["code"])
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, s)
}

func StartSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("StartSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	if _, ok := requireTeacher(rw, req, s); !ok {
		return
	}

	if err := core.SessionStart(s); err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, s)
}

func CloseSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("CloseSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	if _, ok := requireTeacher(rw, req, s); !ok {
		return
	}

	if err := core.SessionEnd(s); err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, s)
}

func DeleteSession(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("DeleteSession", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	if !ValidateToken(req) {
		if _, ok := requireTeacher(rw, req, s); !ok {
			return
		}
	}

	if err := core.SessionDelete(s); err != nil {
		writeError(rw, req, err)
		return
	}
	hub.CloseChannel(s.Id)
	rw.WriteHeader(http.StatusNoContent)
}
