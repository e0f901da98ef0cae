package types

import (
	"time"
)

type SessionStatus string

const (
	SessionCreated SessionStatus = "created"
	SessionActive  SessionStatus = "active"
	SessionEnded   SessionStatus = "ended"
)

type Session struct {
	Id                string        `json:"id" db:"id"`
	Code              string        `json:"code" db:"code"`
	Title             string        `json:"title" db:"title"`
	TeacherId         string        `json:"teacher_id" db:"teacher_id"`
	Status            SessionStatus `json:"status" db:"status"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	StartedAt         *time.Time    `json:"started_at,omitempty" db:"started_at"`
	EndedAt           *time.Time    `json:"ended_at,omitempty" db:"ended_at"`
	ExpiresAt         time.Time     `json:"expires_at" db:"expires_at"`
	CurrentQuestionId string        `json:"current_question_id" db:"current_question_id"`
}

func (s *Session) IsEnded() bool {
	return s.Status == SessionEnded
}

func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

type SessionConfig struct {
	TeacherId string
	Title     string
	Duration  time.Duration
}
