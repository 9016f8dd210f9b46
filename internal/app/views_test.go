package app

import (
	"testing"
	"time"

	"live-quiz-service/internal/domain"
)

func viewSession(stage domain.Stage) domain.Session {
	return domain.Session{
		ID:          "quiz-1",
		Key:         "secret-key",
		Title:       "Capitals",
		Stage:       stage,
		QuestionIDs: []string{"q1", "q2"},
		Players: []domain.Player{
			{ID: "p1", Name: "Alice", ConnectionID: "c1", AuthToken: "t1", Answers: []string{"a"}, Scores: []int{1}},
			{ID: "p2", Name: "Bob", ConnectionID: "c2", AuthToken: "t2", Answers: []string{"b"}, Scores: []int{0}},
		},
	}
}

func TestPlayerViewRedactsPeersBeforeDone(t *testing.T) {
	content := testContent()
	view, ok := PlayerViewOf(viewSession(domain.Result("q1")), content, "p1")
	if !ok {
		t.Fatalf("expected view for p1")
	}
	if view.Me.ID != "p1" || len(view.Me.Answers) != 1 {
		t.Fatalf("addressee keeps own answers, got %+v", view.Me)
	}
	if len(view.Peers) != 1 {
		t.Fatalf("expected one peer, got %d", len(view.Peers))
	}
	peer := view.Peers[0]
	if peer.ID != "p2" {
		t.Fatalf("expected peer p2, got %s", peer.ID)
	}
	if peer.Answers != nil || peer.Scores != nil {
		t.Fatalf("peer answers/scores must be hidden before done, got %+v", peer)
	}
}

func TestPlayerViewRevealsPeersAtDone(t *testing.T) {
	content := testContent()
	view, ok := PlayerViewOf(viewSession(domain.Done), content, "p1")
	if !ok {
		t.Fatalf("expected view for p1")
	}
	peer := view.Peers[0]
	if len(peer.Answers) != 1 || len(peer.Scores) != 1 {
		t.Fatalf("peer answers/scores must be visible at done, got %+v", peer)
	}
	// Multiple-choice answers display as option text once done.
	if peer.Answers[0] != "London" {
		t.Fatalf("expected option text London, got %q", peer.Answers[0])
	}
	if view.Me.Answers[0] != "Paris" {
		t.Fatalf("expected own answer rewritten to Paris, got %q", view.Me.Answers[0])
	}
}

func TestPlayerViewMissingAddressee(t *testing.T) {
	if _, ok := PlayerViewOf(viewSession(domain.Pending), testContent(), "ghost"); ok {
		t.Fatalf("expected no view for unknown player")
	}
}

func TestHostViewStripsSecretsKeepsAnswers(t *testing.T) {
	view := HostViewOf(viewSession(domain.Answer("q1")), testContent())
	if view.ID != "quiz-1" || view.Title != "Capitals" {
		t.Fatalf("unexpected header %+v", view)
	}
	for _, p := range view.Players {
		if len(p.Answers) != 1 || len(p.Scores) != 1 {
			t.Fatalf("host sees all answers and scores, got %+v", p)
		}
	}
}

func TestOverviewRedactsLikePeers(t *testing.T) {
	content := testContent()

	view := OverviewOf(viewSession(domain.Answer("q1")), content)
	if view.Question != nil {
		t.Fatalf("overview carries no question payload")
	}
	for _, p := range view.Players {
		if p.Answers != nil || p.Scores != nil {
			t.Fatalf("overview must hide answers and scores before done, got %+v", p)
		}
	}

	done := OverviewOf(viewSession(domain.Done), content)
	if len(done.Players[0].Answers) != 1 || done.Players[0].Answers[0] != "Paris" {
		t.Fatalf("overview reveals display answers at done, got %+v", done.Players[0])
	}
}

func TestQuestionPayloadPerStage(t *testing.T) {
	content := testContent()

	preview, _ := PlayerViewOf(viewSession(domain.Preview("q2")), content, "p1")
	if preview.Question == nil || preview.Question.ID != "q2" {
		t.Fatalf("expected preview payload for q2")
	}
	if preview.Question.Text != "" || preview.Question.CorrectAnswer != "" || preview.Question.PreviewText == "" {
		t.Fatalf("preview payload carries only id and preview text, got %+v", preview.Question)
	}

	sess := viewSession(domain.Answer("q1"))
	sess.Closes = map[string]time.Time{"q1": time.Now().Add(30 * time.Second)}
	answer, _ := PlayerViewOf(sess, content, "p1")
	if answer.Question == nil || answer.Question.Text == "" || len(answer.Question.Options) != 2 {
		t.Fatalf("answer payload carries full question, got %+v", answer.Question)
	}
	if answer.Question.CorrectAnswer != "" {
		t.Fatalf("answer payload must not leak the correct answer")
	}
	if answer.Question.Closes == nil {
		t.Fatalf("answer payload includes the armed deadline")
	}

	result, _ := PlayerViewOf(viewSession(domain.Result("q1")), content, "p1")
	if result.Question == nil || result.Question.CorrectAnswer != "Paris" {
		t.Fatalf("result payload resolves the correct answer to option text, got %+v", result.Question)
	}

	pending, _ := PlayerViewOf(viewSession(domain.Pending), content, "p1")
	if pending.Question != nil {
		t.Fatalf("pending stage has no question payload")
	}
}
