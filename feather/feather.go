package feather

import (
	"context"
	"io"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/id"
	"github.com/feather-classroom/feather/storage"
)

var (
	sessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sessions",
		Help: "Sessions",
	})
	participantsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "participants",
		Help: "Participants",
	})
)

var latencyHistogramVec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "feather_action_duration_ms",
	Help:    "How long it took to process a specific action, in a specific host",
	Buckets: []float64{1, 5, 25, 100, 500, 2000},
}, []string{"action"})

func init() {
	prometheus.MustRegister(sessionsGauge)
	prometheus.MustRegister(participantsGauge)
	prometheus.MustRegister(latencyHistogramVec)
}

const codeCacheSize = 1024

type feather struct {
	storage   storage.StorageApi
	event     event.EventApi
	generator id.Generator
	codes     *lru.Cache

	locks sync.Map
}

type FeatherApi interface {
	SessionNew(ctx context.Context, config types.SessionConfig) (*types.Session, error)
	SessionGet(id string) (*types.Session, error)
	SessionFindByCode(code string) (*types.Session, error)
	SessionList() ([]*types.Session, error)
	SessionStart(session *types.Session) error
	SessionEnd(session *types.Session) error
	SessionDelete(session *types.Session) error
	SessionSnapshot(session *types.Session, clientId string) (*types.Snapshot, error)
	SessionStats(session *types.Session) (*types.SessionStats, error)

	ParticipantJoin(session *types.Session, config types.ParticipantConfig) (*types.Participant, error)
	ParticipantGet(session *types.Session, clientId string) (*types.Participant, error)
	ParticipantLeave(session *types.Session, clientId string) error
	ParticipantList(session *types.Session) ([]*types.Participant, error)

	ClientConnect(session *types.Session, clientId string) error
	ClientDisconnect(session *types.Session, clientId string) error
	ClientHeartbeat(session *types.Session, clientId string) error

	QuestionPush(session *types.Session, teacherId string, config types.QuestionConfig) (*types.Question, error)
	QuestionList(session *types.Session) ([]*types.Question, error)

	WorkPut(session *types.Session, questionId, studentId string, strokes types.Strokes) (*types.StudentWork, error)
	WorkAppendStroke(session *types.Session, questionId, studentId string, stroke types.Stroke) (*types.StudentWork, error)
	WorkClear(session *types.Session, questionId, studentId string) (*types.StudentWork, error)
	WorkGet(session *types.Session, questionId, studentId string) (*types.StudentWork, error)
	WorkList(session *types.Session, questionId string) ([]*types.StudentWork, error)

	AnnotationPut(session *types.Session, teacherId, questionId, studentId string, strokes types.Strokes) (*types.Annotation, error)
	AnnotationGet(session *types.Session, questionId, studentId string) (*types.Annotation, error)

	ImageNew(session *types.Session, r io.Reader) (*types.Image, error)
	ImageGet(id string) (*types.Image, error)
}

func NewFeather(s storage.StorageApi, e event.EventApi) *feather {
	codes, err := lru.New(codeCacheSize)
	if err != nil {
		log.Fatalf("Could not create room code cache. Got: %v", err)
	}
	return &feather{storage: s, event: e, generator: id.XIDGenerator{}, codes: codes}
}

// lock serialises read-modify-write cycles on a single key (a session or a
// student's work on one question).
func (p *feather) lock(key string) func() {
	m, _ := p.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (p *feather) setGauges() {
	s, err := p.storage.SessionCount()
	if err != nil {
		log.Println("Error counting sessions", err)
		return
	}
	pa, err := p.storage.ParticipantCount()
	if err != nil {
		log.Println("Error counting participants", err)
		return
	}

	sessionsGauge.Set(float64(s))
	participantsGauge.Set(float64(pa))
}

func observeAction(action string, start time.Time) {
	latencyHistogramVec.WithLabelValues(action).Observe(float64(time.Since(start).Nanoseconds()) / 1000000)
}
