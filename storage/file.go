package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/feather-classroom/feather/feather/types"
)

type storage struct {
	rw   sync.Mutex
	path string
	db   *DB
}

type DB struct {
	Sessions     map[string]*types.Session     `json:"sessions"`
	Participants map[string]*types.Participant `json:"participants"`
	Questions    map[string]*types.Question    `json:"questions"`
	Work         map[string]*types.StudentWork `json:"work"`
	Annotations  map[string]*types.Annotation  `json:"annotations"`
	Images       map[string]*types.Image       `json:"images"`

	SessionsByCode          map[string]string   `json:"sessions_by_code"`
	ParticipantsBySessionId map[string][]string `json:"participants_by_session_id"`
	QuestionsBySessionId    map[string][]string `json:"questions_by_session_id"`
	WorkByQuestionId        map[string][]string `json:"work_by_question_id"`
	AnnotationsByQuestionId map[string][]string `json:"annotations_by_question_id"`
	ImagesBySessionId       map[string][]string `json:"images_by_session_id"`
}

func newDB() *DB {
	return &DB{
		Sessions:                map[string]*types.Session{},
		Participants:            map[string]*types.Participant{},
		Questions:               map[string]*types.Question{},
		Work:                    map[string]*types.StudentWork{},
		Annotations:             map[string]*types.Annotation{},
		Images:                  map[string]*types.Image{},
		SessionsByCode:          map[string]string{},
		ParticipantsBySessionId: map[string][]string{},
		QuestionsBySessionId:    map[string][]string{},
		WorkByQuestionId:        map[string][]string{},
		AnnotationsByQuestionId: map[string][]string{},
		ImagesBySessionId:       map[string][]string{},
	}
}

func pairKey(a, b string) string {
	return fmt.Sprintf("%s/%s", a, b)
}

func appendUnique(ids []string, id string) []string {
	for _, i := range ids {
		if i == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeId(ids []string, id string) []string {
	for n, i := range ids {
		if i == id {
			return append(ids[:n], ids[n+1:]...)
		}
	}
	return ids
}

func (store *storage) SessionGet(id string) (*types.Session, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	s, found := store.db.Sessions[id]
	if !found {
		return nil, NotFoundError
	}

	c := *s
	return &c, nil
}

func (store *storage) SessionFindByCode(code string) (*types.Session, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	id, found := store.db.SessionsByCode[strings.ToUpper(code)]
	if !found {
		return nil, NotFoundError
	}
	s, found := store.db.Sessions[id]
	if !found {
		return nil, NotFoundError
	}

	c := *s
	return &c, nil
}

func (store *storage) SessionGetAll() ([]*types.Session, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	sessions := make([]*types.Session, 0, len(store.db.Sessions))
	for _, s := range store.db.Sessions {
		c := *s
		sessions = append(sessions, &c)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (store *storage) SessionPut(session *types.Session) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	code := strings.ToUpper(session.Code)
	if id, found := store.db.SessionsByCode[code]; found && id != session.Id {
		return fmt.Errorf("room code %s already in use", code)
	}
	if old, found := store.db.Sessions[session.Id]; found && old.Code != session.Code {
		delete(store.db.SessionsByCode, strings.ToUpper(old.Code))
	}

	c := *session
	store.db.Sessions[session.Id] = &c
	store.db.SessionsByCode[code] = session.Id

	return store.save()
}

func (store *storage) SessionDelete(id string) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	s, found := store.db.Sessions[id]
	if !found {
		return nil
	}
	for _, k := range store.db.ParticipantsBySessionId[id] {
		delete(store.db.Participants, k)
	}
	delete(store.db.ParticipantsBySessionId, id)
	for _, q := range store.db.QuestionsBySessionId[id] {
		for _, k := range store.db.WorkByQuestionId[q] {
			delete(store.db.Work, k)
		}
		delete(store.db.WorkByQuestionId, q)
		for _, k := range store.db.AnnotationsByQuestionId[q] {
			delete(store.db.Annotations, k)
		}
		delete(store.db.AnnotationsByQuestionId, q)
		delete(store.db.Questions, q)
	}
	delete(store.db.QuestionsBySessionId, id)
	for _, i := range store.db.ImagesBySessionId[id] {
		delete(store.db.Images, i)
		if err := os.Remove(store.imagePath(i)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	delete(store.db.ImagesBySessionId, id)
	delete(store.db.SessionsByCode, strings.ToUpper(s.Code))
	delete(store.db.Sessions, id)

	return store.save()
}

func (store *storage) SessionCount() (int, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	return len(store.db.Sessions), nil
}

func (store *storage) ParticipantGet(sessionId, clientId string) (*types.Participant, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	p := store.db.Participants[pairKey(sessionId, clientId)]
	if p == nil {
		return nil, NotFoundError
	}
	c := *p
	return &c, nil
}

func (store *storage) ParticipantPut(participant *types.Participant) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	if _, found := store.db.Sessions[participant.SessionId]; !found {
		return NotFoundError
	}

	key := pairKey(participant.SessionId, participant.ClientId)
	c := *participant
	store.db.Participants[key] = &c
	store.db.ParticipantsBySessionId[participant.SessionId] = appendUnique(store.db.ParticipantsBySessionId[participant.SessionId], key)

	return store.save()
}

func (store *storage) ParticipantDelete(sessionId, clientId string) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	key := pairKey(sessionId, clientId)
	if _, found := store.db.Participants[key]; !found {
		return nil
	}
	store.db.ParticipantsBySessionId[sessionId] = removeId(store.db.ParticipantsBySessionId[sessionId], key)
	delete(store.db.Participants, key)

	return store.save()
}

func (store *storage) ParticipantFindBySessionId(sessionId string) ([]*types.Participant, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	keys := store.db.ParticipantsBySessionId[sessionId]
	participants := make([]*types.Participant, 0, len(keys))
	for _, k := range keys {
		if p := store.db.Participants[k]; p != nil {
			c := *p
			participants = append(participants, &c)
		}
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	return participants, nil
}

func (store *storage) ParticipantCount() (int, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	return len(store.db.Participants), nil
}

func (store *storage) QuestionGet(id string) (*types.Question, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	q := store.db.Questions[id]
	if q == nil {
		return nil, NotFoundError
	}
	c := *q
	return &c, nil
}

func (store *storage) QuestionPut(question *types.Question) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	if _, found := store.db.Sessions[question.SessionId]; !found {
		return NotFoundError
	}

	c := *question
	store.db.Questions[question.Id] = &c
	store.db.QuestionsBySessionId[question.SessionId] = appendUnique(store.db.QuestionsBySessionId[question.SessionId], question.Id)

	return store.save()
}

func (store *storage) QuestionFindBySessionId(sessionId string) ([]*types.Question, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	ids := store.db.QuestionsBySessionId[sessionId]
	questions := make([]*types.Question, 0, len(ids))
	for _, id := range ids {
		if q := store.db.Questions[id]; q != nil {
			c := *q
			questions = append(questions, &c)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Index < questions[j].Index
	})

	return questions, nil
}

func (store *storage) WorkGet(questionId, studentId string) (*types.StudentWork, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	w := store.db.Work[pairKey(questionId, studentId)]
	if w == nil {
		return nil, NotFoundError
	}
	c := *w
	return &c, nil
}

func (store *storage) WorkPut(work *types.StudentWork) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	if _, found := store.db.Questions[work.QuestionId]; !found {
		return NotFoundError
	}

	key := pairKey(work.QuestionId, work.StudentId)
	c := *work
	store.db.Work[key] = &c
	store.db.WorkByQuestionId[work.QuestionId] = appendUnique(store.db.WorkByQuestionId[work.QuestionId], key)

	return store.save()
}

func (store *storage) WorkFindByQuestionId(questionId string) ([]*types.StudentWork, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	return store.workByQuestion(questionId), nil
}

func (store *storage) workByQuestion(questionId string) []*types.StudentWork {
	keys := store.db.WorkByQuestionId[questionId]
	work := make([]*types.StudentWork, 0, len(keys))
	for _, k := range keys {
		if w := store.db.Work[k]; w != nil {
			c := *w
			work = append(work, &c)
		}
	}
	return work
}

func (store *storage) WorkFindBySessionId(sessionId string) ([]*types.StudentWork, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	work := []*types.StudentWork{}
	for _, q := range store.db.QuestionsBySessionId[sessionId] {
		work = append(work, store.workByQuestion(q)...)
	}
	return work, nil
}

func (store *storage) AnnotationGet(questionId, studentId string) (*types.Annotation, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	a := store.db.Annotations[pairKey(questionId, studentId)]
	if a == nil {
		return nil, NotFoundError
	}
	c := *a
	return &c, nil
}

func (store *storage) AnnotationPut(annotation *types.Annotation) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	if _, found := store.db.Questions[annotation.QuestionId]; !found {
		return NotFoundError
	}

	key := pairKey(annotation.QuestionId, annotation.StudentId)
	c := *annotation
	store.db.Annotations[key] = &c
	store.db.AnnotationsByQuestionId[annotation.QuestionId] = appendUnique(store.db.AnnotationsByQuestionId[annotation.QuestionId], key)

	return store.save()
}

func (store *storage) AnnotationFindBySessionId(sessionId string) ([]*types.Annotation, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	annotations := []*types.Annotation{}
	for _, q := range store.db.QuestionsBySessionId[sessionId] {
		for _, k := range store.db.AnnotationsByQuestionId[q] {
			if a := store.db.Annotations[k]; a != nil {
				c := *a
				annotations = append(annotations, &c)
			}
		}
	}
	return annotations, nil
}

func (store *storage) ImageGet(id string) (*types.Image, error) {
	store.rw.Lock()
	defer store.rw.Unlock()

	i := store.db.Images[id]
	if i == nil {
		return nil, NotFoundError
	}
	c := *i
	data, err := os.ReadFile(store.imagePath(id))
	if err != nil {
		return nil, err
	}
	c.Data = data
	return &c, nil
}

func (store *storage) ImagePut(image *types.Image) error {
	store.rw.Lock()
	defer store.rw.Unlock()

	if _, found := store.db.Sessions[image.SessionId]; !found {
		return NotFoundError
	}

	if err := store.writeImage(image.Id, image.Data); err != nil {
		return err
	}

	c := *image
	c.Data = nil
	store.db.Images[image.Id] = &c
	store.db.ImagesBySessionId[image.SessionId] = appendUnique(store.db.ImagesBySessionId[image.SessionId], image.Id)

	return store.save()
}

func (store *storage) Close() error {
	store.rw.Lock()
	defer store.rw.Unlock()

	return store.save()
}

func (store *storage) load() error {
	file, err := os.Open(store.path)
	if err != nil {
		if os.IsNotExist(err) {
			store.db = newDB()
			return nil
		}
		return err
	}
	defer file.Close()

	db := newDB()
	if err := json.NewDecoder(file).Decode(db); err != nil {
		return err
	}
	store.db = db

	// older files kept image bytes inline
	moved := false
	for id, i := range db.Images {
		if len(i.Data) == 0 {
			continue
		}
		if err := store.writeImage(id, i.Data); err != nil {
			return err
		}
		i.Data = nil
		moved = true
	}
	if moved {
		return store.save()
	}
	return nil
}

// Image bytes live next to the sessions file, one file per image, so that
// saving the document does not rewrite them.
func (store *storage) imagePath(id string) string {
	return filepath.Join(store.path+".images", id)
}

func (store *storage) writeImage(id string, data []byte) error {
	if err := os.MkdirAll(store.path+".images", 0755); err != nil {
		return err
	}
	tmp := store.imagePath(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, store.imagePath(id))
}

// save replaces the file through a rename.
func (store *storage) save() error {
	tmp := store.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	if err := encoder.Encode(store.db); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, store.path)
}

func NewFileStorage(path string) (StorageApi, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	s := &storage{path: path}

	err := s.load()
	if err != nil {
		return nil, err
	}

	return s, nil
}
