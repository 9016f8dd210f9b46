package app

import (
	"testing"

	"live-quiz-service/internal/domain"
)

func TestScoreMultipleChoiceExactMatch(t *testing.T) {
	q := domain.Question{
		ID:         "q1",
		AnswerType: domain.MultipleChoice,
		Options: []domain.Option{
			{ID: "a", Text: "Paris"},
			{ID: "b", Text: "London"},
		},
		CorrectAnswer: "a",
	}

	if got := Score(q, "a"); got != 1 {
		t.Fatalf("submitting the correct option id should score 1, got %d", got)
	}
	if got := Score(q, "b"); got != 0 {
		t.Fatalf("submitting a wrong option id should score 0, got %d", got)
	}
	// Option text is not an option id.
	if got := Score(q, "Paris"); got != 0 {
		t.Fatalf("submitting the option text should score 0, got %d", got)
	}
	if got := Score(q, ""); got != 0 {
		t.Fatalf("missing answer should score 0, got %d", got)
	}
}

func TestScoreFreeTextNormalized(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		AnswerType:    domain.FreeText,
		CorrectAnswer: "Tokyo",
	}

	for _, submitted := range []string{"Tokyo", "  Tokyo  ", "Tokyo\r\n", `"Tokyo"`, "'Tokyo'", "\n\nTokyo\n"} {
		if got := Score(q, submitted); got != 1 {
			t.Fatalf("expected %q to score 1, got %d", submitted, got)
		}
	}
	for _, submitted := range []string{"tokyo", "Kyoto", "", `""Tokyo""`} {
		if got := Score(q, submitted); got != 0 {
			t.Fatalf("expected %q to score 0, got %d", submitted, got)
		}
	}
}

func TestNormalizeLineHandling(t *testing.T) {
	if Normalize("answer\r\n") != Normalize("answer\n") {
		t.Fatalf("CRLF and LF should normalize identically")
	}
	if Normalize(`"answer"`) != Normalize("answer") {
		t.Fatalf("one surrounding quote pair should be stripped")
	}
	if Normalize("'answer'") != "answer" {
		t.Fatalf("single quotes should be stripped, got %q", Normalize("'answer'"))
	}
	if Normalize("\"answer'") != "\"answer'" {
		t.Fatalf("mismatched quotes must be kept")
	}
	if got := Normalize("line one\n   \nline two  "); got != "line one\nline two" {
		t.Fatalf("blank lines dropped and lines trimmed, got %q", got)
	}
}
