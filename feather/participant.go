package feather

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

func participantKey(sessionId, clientId string) string {
	return "participant/" + sessionId + "/" + clientId
}

func (p *feather) ParticipantJoin(s *types.Session, conf types.ParticipantConfig) (*types.Participant, error) {
	defer observeAction("ParticipantJoin", time.Now())

	if conf.ClientId == "" {
		return nil, errors.Wrap(ErrInvalidParticipant, "missing client id")
	}
	if conf.Role == "" {
		conf.Role = types.RoleStudent
	}
	if !conf.Role.Valid() {
		return nil, errors.Wrapf(ErrInvalidParticipant, "unknown role %q", conf.Role)
	}

	current, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return nil, err
	}
	if current.IsEnded() {
		return nil, ErrSessionEnded
	}
	if conf.ClientId == current.TeacherId {
		conf.Role = types.RoleTeacher
	} else if conf.Role == types.RoleTeacher {
		return nil, ErrNotTeacher
	}

	unlock := p.lock(participantKey(s.Id, conf.ClientId))
	defer unlock()

	now := time.Now()
	participant, err := p.storage.ParticipantGet(s.Id, conf.ClientId)
	if storage.NotFound(err) {
		participant = &types.Participant{
			SessionId: s.Id,
			ClientId:  conf.ClientId,
			Role:      conf.Role,
			JoinedAt:  now,
		}
	} else if err != nil {
		return nil, err
	}
	if conf.Name != "" {
		participant.Name = conf.Name
	}
	participant.LastSeen = now

	if err := p.storage.ParticipantPut(participant); err != nil {
		log.Println(err)
		return nil, err
	}

	log.WithFields(log.Fields{"session": s.Id, "client": participant.ClientId}).Infof("Participant joined as %s", participant.Role)
	p.setGauges()
	joined := *participant
	p.event.Emit(event.PARTICIPANT_JOIN, s.Id, &joined)

	return participant, nil
}

func (p *feather) ParticipantGet(s *types.Session, clientId string) (*types.Participant, error) {
	defer observeAction("ParticipantGet", time.Now())

	participant, err := p.storage.ParticipantGet(s.Id, clientId)
	if storage.NotFound(err) {
		return nil, ErrParticipantNotFound
	}
	return participant, err
}

func (p *feather) ParticipantLeave(s *types.Session, clientId string) error {
	defer observeAction("ParticipantLeave", time.Now())

	unlock := p.lock(participantKey(s.Id, clientId))
	defer unlock()

	participant, err := p.ParticipantGet(s, clientId)
	if err != nil {
		return err
	}
	if participant.Role == types.RoleTeacher {
		return ErrNotStudent
	}
	if err := p.storage.ParticipantDelete(s.Id, clientId); err != nil {
		log.Println(err)
		return err
	}

	p.setGauges()
	p.event.Emit(event.PARTICIPANT_LEAVE, s.Id, clientId)
	return nil
}

func (p *feather) ParticipantList(s *types.Session) ([]*types.Participant, error) {
	defer observeAction("ParticipantList", time.Now())

	return p.storage.ParticipantFindBySessionId(s.Id)
}

func (p *feather) ClientConnect(s *types.Session, clientId string) error {
	defer observeAction("ClientConnect", time.Now())

	return p.touch(s, clientId, true)
}

func (p *feather) ClientHeartbeat(s *types.Session, clientId string) error {
	defer observeAction("ClientHeartbeat", time.Now())

	return p.touch(s, clientId, false)
}

func (p *feather) ClientDisconnect(s *types.Session, clientId string) error {
	defer observeAction("ClientDisconnect", time.Now())

	unlock := p.lock(participantKey(s.Id, clientId))
	defer unlock()

	participant, err := p.ParticipantGet(s, clientId)
	if err != nil {
		return err
	}
	wasConnected := participant.Connected
	participant.Connected = false
	participant.LastSeen = time.Now()
	if err := p.storage.ParticipantPut(participant); err != nil {
		log.Println(err)
		return err
	}

	if wasConnected {
		p.event.Emit(event.PRESENCE_LEAVE, s.Id, clientId, participant.Role)
	}
	return nil
}

// touch refreshes LastSeen and marks the client connected. PRESENCE_ENTER is
// emitted on every connect, and on heartbeats that revive a client the
// presence check had dropped.
func (p *feather) touch(s *types.Session, clientId string, announce bool) error {
	unlock := p.lock(participantKey(s.Id, clientId))
	defer unlock()

	participant, err := p.ParticipantGet(s, clientId)
	if err != nil {
		return err
	}
	wasConnected := participant.Connected
	participant.Connected = true
	participant.LastSeen = time.Now()
	if err := p.storage.ParticipantPut(participant); err != nil {
		log.Println(err)
		return err
	}

	if announce || !wasConnected {
		p.event.Emit(event.PRESENCE_ENTER, s.Id, clientId, participant.Role)
	}
	return nil
}
