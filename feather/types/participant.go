package types

import "time"

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

type Participant struct {
	SessionId string    `json:"session_id" db:"session_id"`
	ClientId  string    `json:"client_id" db:"client_id"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	JoinedAt  time.Time `json:"joined_at" db:"joined_at"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
	Connected bool      `json:"connected" db:"connected"`
}

type ParticipantConfig struct {
	ClientId string
	Name     string
	Role     Role
}
