package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"
)

const (
	MaxStrokePoints = 10000
	MaxStrokes      = 5000
	MaxStrokeWidth  = 100
)

var colorFilter = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Tool string

const (
	ToolPen         Tool = "pen"
	ToolHighlighter Tool = "highlighter"
	ToolEraser      Tool = "eraser"
)

type Point struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"p,omitempty"`
}

type Stroke struct {
	Id        string    `json:"id"`
	Tool      Tool      `json:"tool"`
	Color     string    `json:"color"`
	Width     float64   `json:"width"`
	Points    []Point   `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func (s Stroke) Validate() error {
	if s.Id == "" {
		return fmt.Errorf("stroke without id")
	}
	switch s.Tool {
	case ToolPen, ToolHighlighter, ToolEraser:
	default:
		return fmt.Errorf("stroke %s: unknown tool %q", s.Id, s.Tool)
	}
	if !colorFilter.MatchString(s.Color) {
		return fmt.Errorf("stroke %s: invalid color %q", s.Id, s.Color)
	}
	if s.Width <= 0 || s.Width > MaxStrokeWidth {
		return fmt.Errorf("stroke %s: width %v out of range", s.Id, s.Width)
	}
	if len(s.Points) == 0 || len(s.Points) > MaxStrokePoints {
		return fmt.Errorf("stroke %s: %d points", s.Id, len(s.Points))
	}
	return nil
}

// Strokes is stored as a single json document.
type Strokes []Stroke

func (s Strokes) Validate() error {
	if len(s) > MaxStrokes {
		return fmt.Errorf("%d strokes, at most %d allowed", len(s), MaxStrokes)
	}
	seen := make(map[string]bool, len(s))
	for _, stroke := range s {
		if err := stroke.Validate(); err != nil {
			return err
		}
		if seen[stroke.Id] {
			return fmt.Errorf("duplicated stroke %s", stroke.Id)
		}
		seen[stroke.Id] = true
	}
	return nil
}

func (s Strokes) Contains(id string) bool {
	for _, stroke := range s {
		if stroke.Id == id {
			return true
		}
	}
	return false
}

// Sorted returns a copy ordered by creation time, keeping the original order
// for strokes created at the same instant.
func (s Strokes) Sorted() Strokes {
	sorted := make(Strokes, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func (s Strokes) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Strokes) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Strokes{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Strokes", src)
	}
	return json.Unmarshal(data, s)
}

type StudentWork struct {
	SessionId  string    `json:"session_id" db:"session_id"`
	QuestionId string    `json:"question_id" db:"question_id"`
	StudentId  string    `json:"student_id" db:"student_id"`
	Strokes    Strokes   `json:"strokes" db:"strokes"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type Annotation struct {
	SessionId  string    `json:"session_id" db:"session_id"`
	QuestionId string    `json:"question_id" db:"question_id"`
	StudentId  string    `json:"student_id" db:"student_id"`
	TeacherId  string    `json:"teacher_id" db:"teacher_id"`
	Strokes    Strokes   `json:"strokes" db:"strokes"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
