package domain

import "time"

// AnswerType distinguishes how a question is answered and scored.
type AnswerType string

const (
	MultipleChoice AnswerType = "multiple-choice"
	FreeText       AnswerType = "free-text"
)

// Option is one selectable answer of a multiple-choice question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is authored quiz content, consumed read-only by the session
// engine. CorrectAnswer holds an option ID for multiple-choice questions
// and the literal expected text for free-text ones.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	AnswerType    AnswerType `json:"answerType"`
	Options       []Option   `json:"options,omitempty"`
	CorrectAnswer string     `json:"correctAnswer,omitempty"`
	ShowPreview   bool       `json:"showPreview,omitempty"`
	PreviewText   string     `json:"previewText,omitempty"`
	TimeLimit     int        `json:"timeLimit,omitempty"` // seconds, 0 = no limit
}

// Option returns the option with the given ID, if any.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// QuizContent is the authored side of a quiz: title and questions in
// authoritative order.
type QuizContent struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// QuestionIDs returns question ids in authored order.
func (c QuizContent) QuestionIDs() []string {
	ids := make([]string, len(c.Questions))
	for i, q := range c.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Question returns the question with the given ID, if any.
func (c QuizContent) Question(questionID string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionPos returns the position of a question in authored order, or -1.
func (c QuizContent) QuestionPos(questionID string) int {
	for i, q := range c.Questions {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

// Player is one participant of a running session. Answers and Scores are
// positional by question order; a score slot holds 0 or 1 once the
// question has been scored.
type Player struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ConnectionID string   `json:"connectionId,omitempty"`
	AuthToken    string   `json:"auth,omitempty"`
	Answers      []string `json:"answers"`
	Scores       []int    `json:"scores"`
}

// Session is the status record of one running quiz: the stage token, the
// authoring capability key, and the joined players in join order.
type Session struct {
	ID          string               `json:"id"`
	Key         string               `json:"key"`
	Title       string               `json:"title"`
	Stage       Stage                `json:"stage"`
	QuestionIDs []string             `json:"questions"`
	Players     []Player             `json:"players"`
	Closes      map[string]time.Time `json:"closes,omitempty"`
}

// PlayerIndex returns the index of the player with the given id, or -1.
func (s Session) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing the
// stored record.
func (s Session) Clone() Session {
	out := s
	out.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp := p
		cp.Answers = append([]string(nil), p.Answers...)
		cp.Scores = append([]int(nil), p.Scores...)
		out.Players[i] = cp
	}
	if s.Closes != nil {
		out.Closes = make(map[string]time.Time, len(s.Closes))
		for k, v := range s.Closes {
			out.Closes[k] = v
		}
	}
	return out
}

// DirectoryEntry tracks one live connection: the identity bound to it and
// the sessions and host bindings it participates in. ExpiresAt lets the
// store garbage-collect entries for connections that dropped without a
// disconnect event.
type DirectoryEntry struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId,omitempty"`
	Quizzes      []string  `json:"quizzes,omitempty"`
	HostOf       []string  `json:"hostOf,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
