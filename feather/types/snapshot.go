package types

import "time"

// Snapshot is the full state a client needs to rebuild its board after a
// (re)connection.
type Snapshot struct {
	Session      *Session       `json:"session"`
	ClientId     string         `json:"client_id"`
	Role         Role           `json:"role"`
	Participants []*Participant `json:"participants"`
	Questions    []*Question    `json:"questions"`
	Work         []*StudentWork `json:"work"`
	Annotations  []*Annotation  `json:"annotations"`
	Presence     []string       `json:"presence"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

type SessionStats struct {
	QuestionId        string `json:"question_id"`
	Students          int    `json:"students"`
	ConnectedStudents int    `json:"connected_students"`
	Submitted         int    `json:"submitted"`
}
