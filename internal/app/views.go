package app

import (
	"time"

	"live-quiz-service/internal/domain"
)

// PlayerInfo is a player as shown to other recipients: connection id and
// auth token are never included; answers and scores only where the view
// rules allow.
type PlayerInfo struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Answers []string `json:"answers,omitempty"`
	Scores  []int    `json:"scores,omitempty"`
}

// QuestionView is the resolved current-question payload. Which fields
// are populated depends on the stage.
type QuestionView struct {
	ID            string            `json:"id"`
	Text          string            `json:"text,omitempty"`
	PreviewText   string            `json:"previewText,omitempty"`
	AnswerType    domain.AnswerType `json:"answerType,omitempty"`
	Options       []domain.Option   `json:"options,omitempty"`
	TimeLimit     int               `json:"timeLimit,omitempty"`
	Closes        *time.Time        `json:"closes,omitempty"`
	CorrectAnswer string            `json:"correctAnswer,omitempty"`
}

// HostView is the full session as shown to hosts: every player with
// answers and scores, but no connection ids or auth tokens.
type HostView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Stage    domain.Stage  `json:"stage"`
	Players  []PlayerInfo  `json:"players"`
	Question *QuestionView `json:"question,omitempty"`
}

// PlayerStatus is the session as shown to one player: their own record
// in full, peers redacted until the session is done.
type PlayerStatus struct {
	Title    string        `json:"title"`
	Stage    domain.Stage  `json:"stage"`
	Me       PlayerInfo    `json:"me"`
	Peers    []PlayerInfo  `json:"peers"`
	Question *QuestionView `json:"question,omitempty"`
}

// HostViewOf computes the host projection of a session record.
func HostViewOf(sess domain.Session, content domain.QuizContent) HostView {
	done := sess.Stage.Terminal()
	players := make([]PlayerInfo, len(sess.Players))
	for i, p := range sess.Players {
		players[i] = playerInfo(p, content, true, done)
	}
	return HostView{
		ID:       sess.ID,
		Title:    sess.Title,
		Stage:    sess.Stage,
		Players:  players,
		Question: questionView(sess, content),
	}
}

// OverviewOf computes the unauthenticated projection of a session:
// players redacted like peers (no answers or scores before done) and no
// question payload.
func OverviewOf(sess domain.Session, content domain.QuizContent) HostView {
	done := sess.Stage.Terminal()
	players := make([]PlayerInfo, len(sess.Players))
	for i, p := range sess.Players {
		players[i] = playerInfo(p, content, done, done)
	}
	return HostView{
		ID:      sess.ID,
		Title:   sess.Title,
		Stage:   sess.Stage,
		Players: players,
	}
}

// PlayerViewOf computes the projection for one addressed player. The
// second return is false when the player is not in the session, which
// happens with stale fanout triggers during churn.
func PlayerViewOf(sess domain.Session, content domain.QuizContent, playerID string) (PlayerStatus, bool) {
	idx := sess.PlayerIndex(playerID)
	if idx < 0 {
		return PlayerStatus{}, false
	}
	done := sess.Stage.Terminal()
	peers := make([]PlayerInfo, 0, len(sess.Players)-1)
	for i, p := range sess.Players {
		if i == idx {
			continue
		}
		peers = append(peers, playerInfo(p, content, done, done))
	}
	return PlayerStatus{
		Title:    sess.Title,
		Stage:    sess.Stage,
		Me:       playerInfo(sess.Players[idx], content, true, done),
		Peers:    peers,
		Question: questionView(sess, content),
	}, true
}

// playerInfo redacts a player record for a view. Answers and scores are
// included only when the view rules allow; once the session is done,
// multiple-choice answers are rewritten from option id to option text
// for display.
func playerInfo(p domain.Player, content domain.QuizContent, withAnswers, done bool) PlayerInfo {
	info := PlayerInfo{ID: p.ID, Name: p.Name}
	if !withAnswers {
		return info
	}
	info.Scores = append([]int(nil), p.Scores...)
	if done {
		info.Answers = displayAnswers(p.Answers, content)
	} else {
		info.Answers = append([]string(nil), p.Answers...)
	}
	return info
}

func displayAnswers(answers []string, content domain.QuizContent) []string {
	out := append([]string(nil), answers...)
	for pos, answer := range out {
		if pos >= len(content.Questions) || answer == "" {
			continue
		}
		q := content.Questions[pos]
		if q.AnswerType != domain.MultipleChoice {
			continue
		}
		if opt, ok := q.Option(answer); ok {
			out[pos] = opt.Text
		}
	}
	return out
}

func questionView(sess domain.Session, content domain.QuizContent) *QuestionView {
	var questionID string
	switch sess.Stage.Kind {
	case domain.StagePreview, domain.StageAnswer, domain.StageResult:
		questionID = sess.Stage.QuestionID
	default:
		return nil
	}
	q, ok := content.Question(questionID)
	if !ok {
		return nil
	}
	if sess.Stage.Kind == domain.StagePreview {
		return &QuestionView{ID: q.ID, PreviewText: q.PreviewText}
	}
	view := &QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		AnswerType: q.AnswerType,
		Options:    append([]domain.Option(nil), q.Options...),
		TimeLimit:  q.TimeLimit,
	}
	if closes, ok := sess.Closes[q.ID]; ok {
		c := closes
		view.Closes = &c
	}
	if sess.Stage.Kind == domain.StageResult {
		view.CorrectAnswer = resolveCorrectAnswer(q)
	}
	return view
}

// resolveCorrectAnswer renders the canonical answer for display: option
// text for multiple-choice, the literal text otherwise.
func resolveCorrectAnswer(q domain.Question) string {
	if q.AnswerType == domain.MultipleChoice {
		if opt, ok := q.Option(q.CorrectAnswer); ok {
			return opt.Text
		}
	}
	return q.CorrectAnswer
}
