package app

import (
	"strings"

	"live-quiz-service/internal/domain"
)

// Score compares a submitted answer against the question's canonical
// answer and returns 1 for a match, 0 otherwise. Multiple-choice answers
// are option ids and match exactly; free-text answers are normalized on
// both sides first. A missing answer is the empty string and never
// matches.
func Score(q domain.Question, submitted string) int {
	if submitted == "" {
		return 0
	}
	if q.AnswerType == domain.MultipleChoice {
		if submitted == q.CorrectAnswer {
			return 1
		}
		return 0
	}
	if Normalize(submitted) == Normalize(q.CorrectAnswer) {
		return 1
	}
	return 0
}

// Normalize canonicalizes free-text answers: CRLF becomes LF, blank
// lines are dropped, each surviving line is trimmed and loses one
// matching pair of surrounding quotes. Incidental whitespace and quoting
// are tolerated; nothing semantic is attempted.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, stripQuotePair(line))
	}
	return strings.Join(lines, "\n")
}

func stripQuotePair(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
