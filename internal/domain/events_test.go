package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeEventFromWire(t *testing.T) {
	raw := `{"kind":"answer_selection","cardId":"ransom","questionIndex":2,
		"payload":{"selectedIndex":1,"selectedText":"B"},"timestamp":"2026-10-19T10:00:00Z"}`
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	ev, err := DecodeEvent(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sel, ok := ev.(AnswerSelection)
	if !ok {
		t.Fatalf("expected AnswerSelection, got %T", ev)
	}
	if sel.CardID != "ransom" || sel.QuestionIndex != 2 || sel.SelectedIndex != 1 || sel.SelectedText != "B" {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if !sel.At.Equal(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", sel.At)
	}
}

func TestEncodeDecodeResults(t *testing.T) {
	in := ResultsDisplay{
		CardID:     "financial",
		TotalScore: 3,
		MaxScore:   5,
		Answers:    []AnswerSummary{{QuestionIndex: 0, IsCorrect: true, SelectedAnswer: "A", CorrectAnswer: "A"}},
	}
	env, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if env.QuestionIndex != nil {
		t.Fatalf("results should not carry a question index")
	}
	out, err := DecodeEvent(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res := out.(ResultsDisplay)
	if res.TotalScore != 3 || res.MaxScore != 5 || len(res.Answers) != 1 || !res.Answers[0].IsCorrect {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestDecodeEventRejectsUnknownKind(t *testing.T) {
	_, err := DecodeEvent(Envelope{Kind: "screen_shake", Payload: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrUnknownEventKind) {
		t.Fatalf("expected ErrUnknownEventKind, got %v", err)
	}
}

func TestDecodeEventRequiresQuestionIndex(t *testing.T) {
	_, err := DecodeEvent(Envelope{Kind: KindHintUsed, CardID: "legal", Payload: json.RawMessage(`{"hintNumber":1}`)})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestCardTitleFallback(t *testing.T) {
	if got := CardTitle("ransom"); got != "Ransom Pay" {
		t.Fatalf("expected Ransom Pay, got %q", got)
	}
	if got := CardTitle("insider"); got != "Insider" {
		t.Fatalf("expected capitalized fallback, got %q", got)
	}
	if got := CardTitle(""); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
	if len(RiskCards()) != 7 {
		t.Fatalf("expected 7 risk cards")
	}
}

func TestDecodeEventRejectsOutOfRangeIndex(t *testing.T) {
	huge := 2147483647
	_, err := DecodeEvent(Envelope{Kind: KindQuestionDisplay, CardID: "ransom", QuestionIndex: &huge, Payload: json.RawMessage(`{"question":{}}`)})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	negative := -1
	_, err = DecodeEvent(Envelope{Kind: KindHintUsed, CardID: "ransom", QuestionIndex: &negative, Payload: json.RawMessage(`{"hintNumber":1}`)})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for negative index, got %v", err)
	}
	_, err = DecodeEvent(Envelope{Kind: KindResultsDisplay, CardID: "ransom",
		Payload: json.RawMessage(`{"totalScore":1,"maxScore":5,"perQuestionAnswers":[{"questionIndex":99999999}]}`)})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for results, got %v", err)
	}
	last := MaxQuestionIndex
	if _, err := DecodeEvent(Envelope{Kind: KindHintUsed, CardID: "ransom", QuestionIndex: &last, Payload: json.RawMessage(`{"hintNumber":1}`)}); err != nil {
		t.Fatalf("highest slot should decode: %v", err)
	}
}

func TestMirroredStateUsesCamelCase(t *testing.T) {
	raw, err := json.Marshal(MirroredState{LatestResults: &ResultsDisplay{CardID: "legal", TotalScore: 4, MaxScore: 5}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	res := out["latestResults"]
	if res["cardId"] != "legal" || res["totalScore"] != float64(4) {
		t.Fatalf("unexpected results json %s", raw)
	}
	if _, ok := res["CardID"]; ok {
		t.Fatalf("field names must be camelCase: %s", raw)
	}
}
