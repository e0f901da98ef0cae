package feather

import "errors"

var (
	ErrSessionEnded        = errors.New("session has ended")
	ErrSessionNotStarted   = errors.New("session has not started")
	ErrNotTeacher          = errors.New("only the session teacher can do this")
	ErrNotStudent          = errors.New("only students can do this")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrInvalidStrokes      = errors.New("invalid strokes")
	ErrInvalidParticipant  = errors.New("invalid participant")
	ErrImageTooLarge       = errors.New("image is too large")
	ErrInvalidImage        = errors.New("invalid image")
)
