package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

type StrokesRequest struct {
	Strokes types.Strokes `json:"strokes" validate:"max=5000"`
}

// canRead lets the teacher see every student and students only themselves.
func canRead(rw http.ResponseWriter, req *http.Request, s *types.Session, studentId string) bool {
	if _, isTeacher := TeacherOf(req, s); isTeacher || ClientId(rw, req) == studentId {
		return true
	}
	writeError(rw, req, feather.ErrNotTeacher)
	return false
}

func ListWork(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("ListWork", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	if _, ok := requireTeacher(rw, req, s); !ok {
		return
	}

	work, err := core.WorkList(s, mux.Vars(req)["questionId"])
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, work)
}

func GetWork(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetWork", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	vars := mux.Vars(req)
	if !canRead(rw, req, s, vars["studentId"]) {
		return
	}

	w, err := core.WorkGet(s, vars["questionId"], vars["studentId"])
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, w)
}

func PutWork(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("PutWork", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	vars := mux.Vars(req)
	if ClientId(rw, req) != vars["studentId"] {
		writeError(rw, req, feather.ErrNotStudent)
		return
	}
	body := StrokesRequest{}
	if err := decode(rw, req, &body); err != nil {
		writeError(rw, req, err)
		return
	}

	w, err := core.WorkPut(s, vars["questionId"], vars["studentId"], body.Strokes)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, w)
}

func GetAnnotation(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetAnnotation", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	vars := mux.Vars(req)
	if !canRead(rw, req, s, vars["studentId"]) {
		return
	}

	a, err := core.AnnotationGet(s, vars["questionId"], vars["studentId"])
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, a)
}

func PutAnnotation(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("PutAnnotation", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	teacherId, ok := requireTeacher(rw, req, s)
	if !ok {
		return
	}
	body := StrokesRequest{}
	if err := decode(rw, req, &body); err != nil {
		writeError(rw, req, err)
		return
	}

	vars := mux.Vars(req)
	a, err := core.AnnotationPut(s, teacherId, vars["questionId"], vars["studentId"], body.Strokes)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, a)
}
