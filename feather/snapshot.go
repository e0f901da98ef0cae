package feather

import (
	"time"

	"github.com/feather-classroom/feather/feather/types"
)

func (p *feather) SessionSnapshot(s *types.Session, clientId string) (*types.Snapshot, error) {
	defer observeAction("SessionSnapshot", time.Now())

	session, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return nil, err
	}
	requester, err := p.ParticipantGet(s, clientId)
	if err != nil {
		return nil, err
	}

	participants, err := p.storage.ParticipantFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}
	questions, err := p.storage.QuestionFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}
	work, err := p.storage.WorkFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}
	annotations, err := p.storage.AnnotationFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}

	snapshot := &types.Snapshot{
		Session:      session,
		ClientId:     clientId,
		Role:         requester.Role,
		Participants: participants,
		Questions:    questions,
		Work:         []*types.StudentWork{},
		Annotations:  []*types.Annotation{},
		Presence:     []string{},
		GeneratedAt:  time.Now(),
	}
	for _, participant := range participants {
		if participant.Connected {
			snapshot.Presence = append(snapshot.Presence, participant.ClientId)
		}
	}

	// students only get back what they drew and what was written for them
	for _, w := range work {
		if requester.Role == types.RoleTeacher || w.StudentId == clientId {
			snapshot.Work = append(snapshot.Work, w)
		}
	}
	for _, a := range annotations {
		if requester.Role == types.RoleTeacher || a.StudentId == clientId {
			snapshot.Annotations = append(snapshot.Annotations, a)
		}
	}

	return snapshot, nil
}

func (p *feather) SessionStats(s *types.Session) (*types.SessionStats, error) {
	defer observeAction("SessionStats", time.Now())

	session, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return nil, err
	}
	participants, err := p.storage.ParticipantFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}

	stats := &types.SessionStats{QuestionId: session.CurrentQuestionId}
	students := map[string]bool{}
	for _, participant := range participants {
		if participant.Role != types.RoleStudent {
			continue
		}
		students[participant.ClientId] = true
		stats.Students++
		if participant.Connected {
			stats.ConnectedStudents++
		}
	}

	if session.CurrentQuestionId == "" {
		return stats, nil
	}
	work, err := p.storage.WorkFindByQuestionId(session.CurrentQuestionId)
	if err != nil {
		return nil, err
	}
	for _, w := range work {
		if students[w.StudentId] && len(w.Strokes) > 0 {
			stats.Submitted++
		}
	}

	return stats, nil
}
