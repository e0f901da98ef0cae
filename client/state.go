package client

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/feather/types"
)

// State is what a client knows about its session. It is rebuilt from every
// sync-full-state frame and kept up to date by the live frames in between.
type State struct {
	SessionId   string                        `json:"session_id"`
	ClientId    string                        `json:"client_id"`
	Role        types.Role                    `json:"role"`
	Session     *types.Session                `json:"session"`
	Questions   []*types.Question             `json:"questions"`
	Work        map[string]*types.StudentWork `json:"work"`
	Annotations map[string]*types.Annotation  `json:"annotations"`
	Roster      []*RosterEntry                `json:"roster"`
	Stats       *types.SessionStats           `json:"stats,omitempty"`
	SyncedAt    time.Time                     `json:"synced_at"`

	// server time of the last presence and roster frame applied per client
	seen map[string]time.Time
}

type RosterEntry struct {
	types.Participant
	Online bool `json:"online"`
}

// PendingStroke is a stroke drawn locally that the server does not have yet.
type PendingStroke struct {
	QuestionId string       `json:"question_id"`
	Stroke     types.Stroke `json:"stroke"`
}

// Resync lists what has to be sent again after a reconciliation.
type Resync struct {
	Strokes     []PendingStroke
	Annotations []*types.Annotation
}

func (r Resync) Empty() bool {
	return len(r.Strokes) == 0 && len(r.Annotations) == 0
}

var statusRank = map[types.SessionStatus]int{
	types.SessionCreated: 0,
	types.SessionActive:  1,
	types.SessionEnded:   2,
}

func workKey(questionId, studentId string) string {
	return questionId + "/" + studentId
}

func NewState(sessionId, clientId string) *State {
	return &State{
		SessionId:   sessionId,
		ClientId:    clientId,
		Work:        map[string]*types.StudentWork{},
		Annotations: map[string]*types.Annotation{},
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	clone := NewState(s.SessionId, s.ClientId)
	if err := json.Unmarshal(raw, clone); err != nil {
		return nil
	}
	return clone
}

func (s *State) Question(id string) *types.Question {
	for _, q := range s.Questions {
		if q.Id == id {
			return q
		}
	}
	return nil
}

// CurrentQuestion is the last question pushed by the teacher, if any.
func (s *State) CurrentQuestion() *types.Question {
	if s.Session == nil {
		return nil
	}
	return s.Question(s.Session.CurrentQuestionId)
}

func (s *State) WorkOf(questionId, studentId string) *types.StudentWork {
	return s.Work[workKey(questionId, studentId)]
}

func (s *State) AnnotationOf(questionId, studentId string) *types.Annotation {
	return s.Annotations[workKey(questionId, studentId)]
}

// AddStroke records a stroke of the client's own work. It returns false when
// the stroke was already known.
func (s *State) AddStroke(questionId string, stroke types.Stroke) bool {
	key := workKey(questionId, s.ClientId)
	w, found := s.Work[key]
	if !found {
		w = &types.StudentWork{SessionId: s.SessionId, QuestionId: questionId, StudentId: s.ClientId, Strokes: types.Strokes{}}
		s.Work[key] = w
	}
	if w.Strokes.Contains(stroke.Id) {
		return false
	}
	w.Strokes = append(w.Strokes, stroke).Sorted()
	w.UpdatedAt = time.Now()
	return true
}

func (s *State) ClearWork(questionId string) {
	if w, found := s.Work[workKey(questionId, s.ClientId)]; found {
		w.Strokes = types.Strokes{}
		w.UpdatedAt = time.Now()
	}
}

func (s *State) SetAnnotation(a *types.Annotation) {
	s.Annotations[workKey(a.QuestionId, a.StudentId)] = a
}

// fresh records a frame about the client and reports whether it is newer
// than the last synchronisation and the last frame of the same kind.
func (s *State) fresh(kind, clientId string, at time.Time) bool {
	if at.IsZero() {
		return true
	}
	if at.Before(s.SyncedAt) {
		return false
	}
	if s.seen == nil {
		s.seen = map[string]time.Time{}
	}
	key := kind + "/" + clientId
	if last, found := s.seen[key]; found && at.Before(last) {
		return false
	}
	s.seen[key] = at
	return true
}

func (s *State) Online(clientId string) bool {
	for _, entry := range s.Roster {
		if entry.ClientId == clientId {
			return entry.Online
		}
	}
	return false
}

// mergeStrokes returns the server strokes plus the local ones the server does
// not know about, ordered by creation time. missing holds the latter.
func mergeStrokes(server, local types.Strokes) (merged types.Strokes, missing types.Strokes) {
	merged = make(types.Strokes, 0, len(server)+len(local))
	seen := map[string]bool{}
	for _, stroke := range server {
		if seen[stroke.Id] {
			continue
		}
		seen[stroke.Id] = true
		merged = append(merged, stroke)
	}
	for _, stroke := range local {
		if seen[stroke.Id] {
			continue
		}
		seen[stroke.Id] = true
		merged = append(merged, stroke)
		missing = append(missing, stroke)
	}
	return merged.Sorted(), missing
}

// Reconcile merges the local state with a full snapshot from the server.
//
// The server is authoritative for everything except the client's own work:
// strokes drawn while disconnected are kept and returned in the Resync so
// they can be sent again. Annotations keep whichever side is newer.
func Reconcile(local *State, snapshot *types.Snapshot) (*State, Resync) {
	resync := Resync{}
	if local == nil {
		local = NewState(snapshot.Session.Id, snapshot.ClientId)
	}

	state := NewState(snapshot.Session.Id, snapshot.ClientId)
	state.Role = snapshot.Role
	state.Session = snapshot.Session
	state.Questions = snapshot.Questions
	state.Stats = local.Stats
	state.SyncedAt = snapshot.GeneratedAt

	writable := !snapshot.Session.IsEnded()

	for _, w := range snapshot.Work {
		state.Work[workKey(w.QuestionId, w.StudentId)] = w
	}
	for key, w := range local.Work {
		if w.StudentId != state.ClientId || state.Question(w.QuestionId) == nil {
			continue
		}
		server, found := state.Work[key]
		if !found {
			server = &types.StudentWork{SessionId: state.SessionId, QuestionId: w.QuestionId, StudentId: w.StudentId, UpdatedAt: w.UpdatedAt}
			state.Work[key] = server
		}
		merged, missing := mergeStrokes(server.Strokes, w.Strokes)
		if !writable || len(missing) == 0 {
			continue
		}
		server.Strokes = merged
		for _, stroke := range missing {
			resync.Strokes = append(resync.Strokes, PendingStroke{QuestionId: w.QuestionId, Stroke: stroke})
		}
	}

	for _, a := range snapshot.Annotations {
		state.Annotations[workKey(a.QuestionId, a.StudentId)] = a
	}
	for key, a := range local.Annotations {
		if state.Question(a.QuestionId) == nil {
			continue
		}
		server, found := state.Annotations[key]
		if found && !a.UpdatedAt.After(server.UpdatedAt) {
			continue
		}
		state.Annotations[key] = a
		if writable && state.Role == types.RoleTeacher && a.TeacherId == state.ClientId {
			resync.Annotations = append(resync.Annotations, a)
		}
	}

	state.Roster = roster(snapshot.Participants, snapshot.Presence)

	sort.Slice(resync.Strokes, func(i, j int) bool {
		return resync.Strokes[i].Stroke.CreatedAt.Before(resync.Strokes[j].Stroke.CreatedAt)
	})
	return state, resync
}

func roster(participants []*types.Participant, presence []string) []*RosterEntry {
	online := make(map[string]bool, len(presence))
	for _, id := range presence {
		online[id] = true
	}
	entries := make([]*RosterEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, &RosterEntry{Participant: *p, Online: online[p.ClientId]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Role != entries[j].Role {
			return entries[i].Role == types.RoleTeacher
		}
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries
}

// Apply folds a live frame into the state. It returns false for frames that
// do not change it.
func (s *State) Apply(m *broadcast.Message) (bool, error) {
	switch m.Type {
	case broadcast.Question:
		q := &types.Question{}
		if err := m.Decode(q); err != nil {
			return false, err
		}
		if s.Question(q.Id) == nil {
			s.Questions = append(s.Questions, q)
		}
		if s.Session != nil {
			s.Session.CurrentQuestionId = q.Id
		}
	case broadcast.StudentLines:
		w := &types.StudentWork{}
		if err := m.Decode(w); err != nil {
			return false, err
		}
		key := workKey(w.QuestionId, w.StudentId)
		current, found := s.Work[key]
		if found && current.UpdatedAt.After(w.UpdatedAt) {
			return false, nil
		}
		if found && w.StudentId == s.ClientId && len(w.Strokes) > 0 {
			// strokes still in flight must survive the echo of older ones
			w.Strokes, _ = mergeStrokes(w.Strokes, current.Strokes)
		}
		s.Work[key] = w
	case broadcast.TeacherAnnotation:
		a := &types.Annotation{}
		if err := m.Decode(a); err != nil {
			return false, err
		}
		if current, found := s.Annotations[workKey(a.QuestionId, a.StudentId)]; found && current.UpdatedAt.After(a.UpdatedAt) {
			return false, nil
		}
		s.SetAnnotation(a)
	case broadcast.ParticipantJoin:
		p := &types.Participant{}
		if err := m.Decode(p); err != nil {
			return false, err
		}
		if !s.fresh("roster", p.ClientId, m.Timestamp) {
			return false, nil
		}
		for _, entry := range s.Roster {
			if entry.ClientId == p.ClientId {
				online := entry.Online
				entry.Participant = *p
				entry.Online = online
				return true, nil
			}
		}
		s.Roster = append(s.Roster, &RosterEntry{Participant: *p})
	case broadcast.ParticipantLeave:
		if !s.fresh("roster", m.ClientId, m.Timestamp) {
			return false, nil
		}
		for i, entry := range s.Roster {
			if entry.ClientId == m.ClientId {
				s.Roster = append(s.Roster[:i], s.Roster[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	case broadcast.PresenceEnter, broadcast.PresenceLeave:
		if !s.fresh("presence", m.ClientId, m.Timestamp) {
			return false, nil
		}
		for _, entry := range s.Roster {
			if entry.ClientId == m.ClientId {
				entry.Online = m.Type == broadcast.PresenceEnter
				return true, nil
			}
		}
		return false, nil
	case broadcast.SessionStarted, broadcast.SessionEnded:
		session := &types.Session{}
		if err := m.Decode(session); err != nil {
			return false, err
		}
		// ended is final, a late session-started must not reopen it
		if s.Session != nil && statusRank[session.Status] < statusRank[s.Session.Status] {
			return false, nil
		}
		s.Session = session
	case broadcast.SessionStats:
		stats := &types.SessionStats{}
		if err := m.Decode(stats); err != nil {
			return false, err
		}
		s.Stats = stats
	default:
		return false, nil
	}
	return true, nil
}
