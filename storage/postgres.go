package storage

import (
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/feather/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

type postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects to the database, waiting for it to accept connections.
func OpenPostgres(url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := ping(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			return nil
		}
		log.Debugf("Database not ready (attempt %d). Got: %v", attempts, err)
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate runs the given goose command ("up", "down", "status", ...) with the
// embedded migrations.
func Migrate(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db, "migrations", args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}

func NewPostgresStorage(url string) (StorageApi, error) {
	db, err := OpenPostgres(url)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db.DB, "up"); err != nil {
		db.Close()
		return nil, err
	}
	return &postgres{db: db}, nil
}

const foreignKeyViolation = pq.ErrorCode("23503")

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError
	}
	return err
}

const sessionColumns = `id, code, title, teacher_id, status, created_at, started_at, ended_at, expires_at, current_question_id`

func (p *postgres) SessionGet(id string) (*types.Session, error) {
	s := &types.Session{}
	err := p.db.Get(s, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (p *postgres) SessionFindByCode(code string) (*types.Session, error) {
	s := &types.Session{}
	err := p.db.Get(s, `SELECT `+sessionColumns+` FROM sessions WHERE upper(code) = upper($1)`, code)
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (p *postgres) SessionGetAll() ([]*types.Session, error) {
	sessions := []*types.Session{}
	if err := p.db.Select(&sessions, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "listing sessions")
	}
	return sessions, nil
}

func (p *postgres) SessionPut(s *types.Session) error {
	_, err := p.db.NamedExec(`
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (:id, :code, :title, :teacher_id, :status, :created_at, :started_at, :ended_at, :expires_at, :current_question_id)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			expires_at = EXCLUDED.expires_at,
			current_question_id = EXCLUDED.current_question_id`, s)
	return errors.Wrapf(err, "saving session %s", s.Id)
}

// SessionDelete relies on ON DELETE CASCADE for dependent rows.
func (p *postgres) SessionDelete(id string) error {
	_, err := p.db.Exec(`DELETE FROM sessions WHERE id = $1`, id)
	return errors.Wrapf(err, "deleting session %s", id)
}

func (p *postgres) SessionCount() (int, error) {
	var count int
	err := p.db.Get(&count, `SELECT count(*) FROM sessions`)
	return count, errors.Wrap(err, "counting sessions")
}

const participantColumns = `session_id, client_id, name, role, joined_at, last_seen, connected`

func (p *postgres) ParticipantGet(sessionId, clientId string) (*types.Participant, error) {
	pa := &types.Participant{}
	err := p.db.Get(pa, `SELECT `+participantColumns+` FROM participants WHERE session_id = $1 AND client_id = $2`, sessionId, clientId)
	if err != nil {
		return nil, notFound(err)
	}
	return pa, nil
}

func (p *postgres) ParticipantPut(pa *types.Participant) error {
	_, err := p.db.NamedExec(`
		INSERT INTO participants (`+participantColumns+`)
		VALUES (:session_id, :client_id, :name, :role, :joined_at, :last_seen, :connected)
		ON CONFLICT (session_id, client_id) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			last_seen = EXCLUDED.last_seen,
			connected = EXCLUDED.connected`, pa)
	return violation(err, "saving participant %s", pa.ClientId)
}

// violation reports a foreign key violation (the parent row is missing) as
// NotFoundError.
func violation(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == foreignKeyViolation {
		return NotFoundError
	}
	return errors.Wrapf(err, format, args...)
}

func (p *postgres) ParticipantDelete(sessionId, clientId string) error {
	_, err := p.db.Exec(`DELETE FROM participants WHERE session_id = $1 AND client_id = $2`, sessionId, clientId)
	return errors.Wrapf(err, "deleting participant %s", clientId)
}

func (p *postgres) ParticipantFindBySessionId(sessionId string) ([]*types.Participant, error) {
	participants := []*types.Participant{}
	err := p.db.Select(&participants, `SELECT `+participantColumns+` FROM participants WHERE session_id = $1 ORDER BY joined_at`, sessionId)
	return participants, errors.Wrap(err, "listing participants")
}

func (p *postgres) ParticipantCount() (int, error) {
	var count int
	err := p.db.Get(&count, `SELECT count(*) FROM participants`)
	return count, errors.Wrap(err, "counting participants")
}

const questionColumns = `id, session_id, idx, kind, template, image_id, prompt, created_at`

func (p *postgres) QuestionGet(id string) (*types.Question, error) {
	q := &types.Question{}
	if err := p.db.Get(q, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return q, nil
}

func (p *postgres) QuestionPut(q *types.Question) error {
	_, err := p.db.NamedExec(`
		INSERT INTO questions (`+questionColumns+`)
		VALUES (:id, :session_id, :idx, :kind, :template, :image_id, :prompt, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			template = EXCLUDED.template,
			image_id = EXCLUDED.image_id,
			prompt = EXCLUDED.prompt`, q)
	return violation(err, "saving question %s", q.Id)
}

func (p *postgres) QuestionFindBySessionId(sessionId string) ([]*types.Question, error) {
	questions := []*types.Question{}
	err := p.db.Select(&questions, `SELECT `+questionColumns+` FROM questions WHERE session_id = $1 ORDER BY idx`, sessionId)
	return questions, errors.Wrap(err, "listing questions")
}

const workColumns = `session_id, question_id, student_id, strokes, updated_at`

func (p *postgres) WorkGet(questionId, studentId string) (*types.StudentWork, error) {
	w := &types.StudentWork{}
	err := p.db.Get(w, `SELECT `+workColumns+` FROM student_work WHERE question_id = $1 AND student_id = $2`, questionId, studentId)
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (p *postgres) WorkPut(w *types.StudentWork) error {
	_, err := p.db.NamedExec(`
		INSERT INTO student_work (`+workColumns+`)
		VALUES (:session_id, :question_id, :student_id, :strokes, :updated_at)
		ON CONFLICT (question_id, student_id) DO UPDATE SET
			strokes = EXCLUDED.strokes,
			updated_at = EXCLUDED.updated_at`, w)
	return violation(err, "saving work of %s", w.StudentId)
}

func (p *postgres) WorkFindByQuestionId(questionId string) ([]*types.StudentWork, error) {
	work := []*types.StudentWork{}
	err := p.db.Select(&work, `SELECT `+workColumns+` FROM student_work WHERE question_id = $1 ORDER BY student_id`, questionId)
	return work, errors.Wrap(err, "listing work")
}

func (p *postgres) WorkFindBySessionId(sessionId string) ([]*types.StudentWork, error) {
	work := []*types.StudentWork{}
	err := p.db.Select(&work, `SELECT `+workColumns+` FROM student_work WHERE session_id = $1 ORDER BY question_id, student_id`, sessionId)
	return work, errors.Wrap(err, "listing work")
}

const annotationColumns = `session_id, question_id, student_id, teacher_id, strokes, updated_at`

func (p *postgres) AnnotationGet(questionId, studentId string) (*types.Annotation, error) {
	a := &types.Annotation{}
	err := p.db.Get(a, `SELECT `+annotationColumns+` FROM annotations WHERE question_id = $1 AND student_id = $2`, questionId, studentId)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (p *postgres) AnnotationPut(a *types.Annotation) error {
	_, err := p.db.NamedExec(`
		INSERT INTO annotations (`+annotationColumns+`)
		VALUES (:session_id, :question_id, :student_id, :teacher_id, :strokes, :updated_at)
		ON CONFLICT (question_id, student_id) DO UPDATE SET
			teacher_id = EXCLUDED.teacher_id,
			strokes = EXCLUDED.strokes,
			updated_at = EXCLUDED.updated_at`, a)
	return violation(err, "saving annotation for %s", a.StudentId)
}

func (p *postgres) AnnotationFindBySessionId(sessionId string) ([]*types.Annotation, error) {
	annotations := []*types.Annotation{}
	err := p.db.Select(&annotations, `SELECT `+annotationColumns+` FROM annotations WHERE session_id = $1 ORDER BY question_id, student_id`, sessionId)
	return annotations, errors.Wrap(err, "listing annotations")
}

const imageColumns = `id, session_id, content_type, width, height, data, created_at`

func (p *postgres) ImageGet(id string) (*types.Image, error) {
	i := &types.Image{}
	if err := p.db.Get(i, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return i, nil
}

func (p *postgres) ImagePut(i *types.Image) error {
	_, err := p.db.NamedExec(`
		INSERT INTO images (`+imageColumns+`)
		VALUES (:id, :session_id, :content_type, :width, :height, :data, :created_at)
		ON CONFLICT (id) DO NOTHING`, i)
	return violation(err, "saving image %s", i.Id)
}

func (p *postgres) Close() error {
	return p.db.Close()
}
