package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no status record exists for a quiz id.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrPlayerNotFound is returned when a token resolves to no player in the session.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrQuizNotFound indicates the authored quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question id is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrWrongKey indicates a host operation carried a key that does not match the session.
	ErrWrongKey = errors.New("authoring key does not match session")
	// ErrInvalidToken indicates a bearer token failed verification.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrBadStageToken indicates a stage token outside the grammar.
	ErrBadStageToken = errors.New("malformed stage token")
	// ErrPreconditionFailed signals that a conditional write's guard no longer
	// held. Callers treat it as a silent no-op (typically a race with a
	// concurrent advance or a deleted record).
	ErrPreconditionFailed = errors.New("store precondition failed")
	// ErrConnectionGone indicates a push target connection is no longer open.
	ErrConnectionGone = errors.New("connection gone")
)
