package domain

import (
	"encoding/json"
	"testing"
)

func TestParseStageRoundTrip(t *testing.T) {
	tokens := []string{"pending", "preview@q1", "answer@q1", "result@q1", "done"}
	for _, token := range tokens {
		stage, err := ParseStage(token)
		if err != nil {
			t.Fatalf("parse %q: %v", token, err)
		}
		if stage.String() != token {
			t.Fatalf("round trip %q -> %q", token, stage.String())
		}
	}
}

func TestParseStageRejectsUnknownTokens(t *testing.T) {
	for _, token := range []string{"", "paused", "answer@", "@q1", "answer", "limbo@q1"} {
		if _, err := ParseStage(token); err == nil {
			t.Fatalf("expected error for %q", token)
		}
	}
}

func TestStageJSON(t *testing.T) {
	sess := Session{ID: "quiz-1", Stage: Answer("q7")}
	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Session
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Stage != Answer("q7") {
		t.Fatalf("expected answer@q7, got %s", decoded.Stage)
	}
}

func TestStageJSONRejectsCorruptToken(t *testing.T) {
	var sess Session
	if err := json.Unmarshal([]byte(`{"id":"x","stage":"limbo@q1"}`), &sess); err == nil {
		t.Fatalf("expected error for corrupt stage token")
	}
}
