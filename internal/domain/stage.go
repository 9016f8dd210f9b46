package domain

import (
	"fmt"
	"strings"
)

// StageKind enumerates the phases a quiz session moves through.
type StageKind int

const (
	StagePending StageKind = iota
	StagePreview
	StageAnswer
	StageResult
	StageDone
)

// Stage is the parsed form of the wire-visible stage token
// ("pending", "preview@<qid>", "answer@<qid>", "result@<qid>", "done").
// All transition logic operates on this type; the string token only
// exists at the serialization boundary.
type Stage struct {
	Kind       StageKind
	QuestionID string
}

var (
	Pending = Stage{Kind: StagePending}
	Done    = Stage{Kind: StageDone}
)

func Preview(questionID string) Stage { return Stage{Kind: StagePreview, QuestionID: questionID} }
func Answer(questionID string) Stage  { return Stage{Kind: StageAnswer, QuestionID: questionID} }
func Result(questionID string) Stage  { return Stage{Kind: StageResult, QuestionID: questionID} }

// ParseStage parses a stage token. Unknown tokens are rejected rather
// than treated as pending, so a corrupted record surfaces immediately.
func ParseStage(token string) (Stage, error) {
	switch token {
	case "pending":
		return Pending, nil
	case "done":
		return Done, nil
	}
	prefix, questionID, ok := strings.Cut(token, "@")
	if !ok || questionID == "" {
		return Stage{}, fmt.Errorf("%w: %q", ErrBadStageToken, token)
	}
	switch prefix {
	case "preview":
		return Preview(questionID), nil
	case "answer":
		return Answer(questionID), nil
	case "result":
		return Result(questionID), nil
	}
	return Stage{}, fmt.Errorf("%w: %q", ErrBadStageToken, token)
}

func (s Stage) String() string {
	switch s.Kind {
	case StagePreview:
		return "preview@" + s.QuestionID
	case StageAnswer:
		return "answer@" + s.QuestionID
	case StageResult:
		return "result@" + s.QuestionID
	case StageDone:
		return "done"
	default:
		return "pending"
	}
}

// Terminal reports whether the stage admits no further transitions.
func (s Stage) Terminal() bool { return s.Kind == StageDone }

func (s Stage) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	token := strings.Trim(string(data), `"`)
	parsed, err := ParseStage(token)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
