package handlers

import (
	"net/http"
	"time"

	"github.com/feather-classroom/feather/feather/types"
)

type QuestionRequest struct {
	Kind     types.QuestionKind `json:"kind" validate:"omitempty,oneof=blank template image"`
	Template string             `json:"template" validate:"omitempty,template"`
	ImageId  string             `json:"image_id" validate:"required_if=Kind image"`
	Prompt   string             `json:"prompt" validate:"max=2000"`
}

func PushQuestion(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("PushQuestion", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}
	teacherId, ok := requireTeacher(rw, req, s)
	if !ok {
		return
	}
	body := QuestionRequest{}
	if err := decode(rw, req, &body); err != nil {
		writeError(rw, req, err)
		return
	}

	q, err := core.QuestionPush(s, teacherId, types.QuestionConfig{Kind: body.Kind, Template: body.Template, ImageId: body.ImageId, Prompt: body.Prompt})
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusCreated, q)
}

func ListQuestions(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("ListQuestions", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}

	questions, err := core.QuestionList(s)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, questions)
}
