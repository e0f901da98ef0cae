package types

import "time"

type QuestionKind string

const (
	QuestionBlank    QuestionKind = "blank"
	QuestionTemplate QuestionKind = "template"
	QuestionImage    QuestionKind = "image"
)

// Templates are the backgrounds a teacher can push as a template question.
var Templates = map[string]bool{
	"grid":        true,
	"lined":       true,
	"dotted":      true,
	"graph":       true,
	"number-line": true,
	"handwriting": true,
}

type Question struct {
	Id        string       `json:"id" db:"id"`
	SessionId string       `json:"session_id" db:"session_id"`
	Index     int          `json:"index" db:"idx"`
	Kind      QuestionKind `json:"kind" db:"kind"`
	Template  string       `json:"template,omitempty" db:"template"`
	ImageId   string       `json:"image_id,omitempty" db:"image_id"`
	Prompt    string       `json:"prompt,omitempty" db:"prompt"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

type QuestionConfig struct {
	Kind     QuestionKind `json:"kind"`
	Template string       `json:"template"`
	ImageId  string       `json:"image_id"`
	Prompt   string       `json:"prompt"`
}

type Image struct {
	Id          string    `json:"id" db:"id"`
	SessionId   string    `json:"session_id" db:"session_id"`
	ContentType string    `json:"content_type" db:"content_type"`
	Width       int       `json:"width" db:"width"`
	Height      int       `json:"height" db:"height"`
	Data        []byte    `json:"data,omitempty" db:"data"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
