package app

import (
	"time"

	"live-quiz-service/internal/domain"
)

// NextStage computes the stage an advance moves the session to, per the
// stage grammar. Advancing a done session yields done again.
func NextStage(sess domain.Session, content domain.QuizContent) domain.Stage {
	switch sess.Stage.Kind {
	case domain.StagePending:
		return entryStage(content, 0)
	case domain.StagePreview:
		return domain.Answer(sess.Stage.QuestionID)
	case domain.StageAnswer:
		return domain.Result(sess.Stage.QuestionID)
	case domain.StageResult:
		pos := content.QuestionPos(sess.Stage.QuestionID)
		if pos < 0 {
			return domain.Done
		}
		return entryStage(content, pos+1)
	default:
		return domain.Done
	}
}

// entryStage is the stage a question is entered at: preview when the
// question has one, otherwise straight to the answer window. Past the
// last question the session is done.
func entryStage(content domain.QuizContent, pos int) domain.Stage {
	if pos >= len(content.Questions) {
		return domain.Done
	}
	q := content.Questions[pos]
	if q.ShowPreview {
		return domain.Preview(q.ID)
	}
	return domain.Answer(q.ID)
}

// ApplyTransition mutates the session for one advance step: closing an
// answer window scores every player at that question's fixed position,
// and opening one arms the advisory deadline when the question carries a
// time limit. Runs inside the store's stage-guarded conditional write,
// so it executes at most once per transition.
func ApplyTransition(sess *domain.Session, content domain.QuizContent, next domain.Stage, now time.Time) {
	if sess.Stage.Kind == domain.StageAnswer && next.Kind == domain.StageResult {
		scoreQuestion(sess, content, sess.Stage.QuestionID)
	}
	sess.Stage = next
	if next.Kind == domain.StageAnswer {
		armDeadline(sess, content, next.QuestionID, now)
	}
}

func armDeadline(sess *domain.Session, content domain.QuizContent, questionID string, now time.Time) {
	q, ok := content.Question(questionID)
	if !ok || q.TimeLimit <= 0 {
		return
	}
	if sess.Closes == nil {
		sess.Closes = make(map[string]time.Time)
	}
	sess.Closes[questionID] = now.Add(time.Duration(q.TimeLimit) * time.Second)
}

func scoreQuestion(sess *domain.Session, content domain.QuizContent, questionID string) {
	q, ok := content.Question(questionID)
	pos := content.QuestionPos(questionID)
	if !ok || pos < 0 {
		return
	}
	for i := range sess.Players {
		p := &sess.Players[i]
		submitted := ""
		if pos < len(p.Answers) {
			submitted = p.Answers[pos]
		}
		// Fixed positional write: a replayed transition overwrites the
		// same slot instead of appending a duplicate score.
		for len(p.Scores) <= pos {
			p.Scores = append(p.Scores, 0)
		}
		p.Scores[pos] = Score(q, submitted)
	}
}
