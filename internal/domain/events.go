package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind tags the four interactions a quiz taker can emit.
type EventKind string

const (
	KindQuestionDisplay EventKind = "question_display"
	KindAnswerSelection EventKind = "answer_selection"
	KindHintUsed        EventKind = "hint_used"
	KindResultsDisplay  EventKind = "results_display"
)

// Event is an immutable fact about one user interaction. The set of
// implementations is closed: QuestionDisplay, AnswerSelection, HintUsed and
// ResultsDisplay.
type Event interface {
	Kind() EventKind
	Card() string
	OccurredAt() time.Time
	isEvent()
}

// QuestionDisplay records that a question was shown.
type QuestionDisplay struct {
	CardID        string           `json:"cardId"`
	QuestionIndex int              `json:"questionIndex"`
	Question      QuestionSnapshot `json:"question"`
	At            time.Time        `json:"timestamp"`
}

// AnswerSelection records that an option was picked (possibly replacing an earlier pick).
type AnswerSelection struct {
	CardID        string    `json:"cardId"`
	QuestionIndex int       `json:"questionIndex"`
	SelectedIndex int       `json:"selectedIndex"`
	SelectedText  string    `json:"selectedText"`
	At            time.Time `json:"timestamp"`
}

// HintUsed records that the player revealed hint 1 or 2.
type HintUsed struct {
	CardID        string    `json:"cardId"`
	QuestionIndex int       `json:"questionIndex"`
	HintNumber    int       `json:"hintNumber"`
	HintText      string    `json:"hintText"`
	At            time.Time `json:"timestamp"`
}

// ResultsDisplay records the final score screen of a card.
type ResultsDisplay struct {
	CardID     string          `json:"cardId"`
	TotalScore int             `json:"totalScore"`
	MaxScore   int             `json:"maxScore"`
	Answers    []AnswerSummary `json:"perQuestionAnswers"`
	At         time.Time       `json:"timestamp"`
}

// AnswerSummary is the per-question outcome shown on the results screen.
type AnswerSummary struct {
	QuestionIndex  int    `json:"questionIndex"`
	IsCorrect      bool   `json:"isCorrect"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	HintsUsed      int    `json:"hintsUsed"`
}

func (QuestionDisplay) Kind() EventKind { return KindQuestionDisplay }
func (AnswerSelection) Kind() EventKind { return KindAnswerSelection }
func (HintUsed) Kind() EventKind        { return KindHintUsed }
func (ResultsDisplay) Kind() EventKind  { return KindResultsDisplay }

func (e QuestionDisplay) Card() string { return e.CardID }
func (e AnswerSelection) Card() string { return e.CardID }
func (e HintUsed) Card() string        { return e.CardID }
func (e ResultsDisplay) Card() string  { return e.CardID }

func (e QuestionDisplay) OccurredAt() time.Time { return e.At }
func (e AnswerSelection) OccurredAt() time.Time { return e.At }
func (e HintUsed) OccurredAt() time.Time        { return e.At }
func (e ResultsDisplay) OccurredAt() time.Time  { return e.At }

func (QuestionDisplay) isEvent() {}
func (AnswerSelection) isEvent() {}
func (HintUsed) isEvent()        {}
func (ResultsDisplay) isEvent()  {}

// RoutedEvent is an event annotated with the connection that emitted it.
type RoutedEvent struct {
	Origin ConnectionInfo `json:"origin"`
	Event  Event          `json:"-"`
}

// Envelope is the wire shape of an event.
type Envelope struct {
	Kind          EventKind       `json:"kind"`
	CardID        string          `json:"cardId"`
	QuestionIndex *int            `json:"questionIndex,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

type questionDisplayPayload struct {
	Question QuestionSnapshot `json:"question"`
}

type answerSelectionPayload struct {
	SelectedIndex int    `json:"selectedIndex"`
	SelectedText  string `json:"selectedText"`
}

type hintUsedPayload struct {
	HintNumber int    `json:"hintNumber"`
	HintText   string `json:"hintText"`
}

type resultsDisplayPayload struct {
	TotalScore int             `json:"totalScore"`
	MaxScore   int             `json:"maxScore"`
	Answers    []AnswerSummary `json:"perQuestionAnswers"`
}

// EncodeEvent converts an event to its wire envelope.
func EncodeEvent(ev Event) (Envelope, error) {
	env := Envelope{Kind: ev.Kind(), CardID: ev.Card(), Timestamp: ev.OccurredAt()}
	var payload any
	switch e := ev.(type) {
	case QuestionDisplay:
		env.QuestionIndex = intPtr(e.QuestionIndex)
		payload = questionDisplayPayload{Question: e.Question}
	case AnswerSelection:
		env.QuestionIndex = intPtr(e.QuestionIndex)
		payload = answerSelectionPayload{SelectedIndex: e.SelectedIndex, SelectedText: e.SelectedText}
	case HintUsed:
		env.QuestionIndex = intPtr(e.QuestionIndex)
		payload = hintUsedPayload{HintNumber: e.HintNumber, HintText: e.HintText}
	case ResultsDisplay:
		payload = resultsDisplayPayload{TotalScore: e.TotalScore, MaxScore: e.MaxScore, Answers: e.Answers}
	default:
		return Envelope{}, ErrUnknownEventKind
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", env.Kind, err)
	}
	env.Payload = raw
	return env, nil
}

// DecodeEvent converts a wire envelope into one of the closed event variants.
func DecodeEvent(env Envelope) (Event, error) {
	switch env.Kind {
	case KindQuestionDisplay:
		idx, err := requireIndex(env)
		if err != nil {
			return nil, err
		}
		var p questionDisplayPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return QuestionDisplay{CardID: env.CardID, QuestionIndex: idx, Question: p.Question, At: env.Timestamp}, nil
	case KindAnswerSelection:
		idx, err := requireIndex(env)
		if err != nil {
			return nil, err
		}
		var p answerSelectionPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return AnswerSelection{CardID: env.CardID, QuestionIndex: idx, SelectedIndex: p.SelectedIndex, SelectedText: p.SelectedText, At: env.Timestamp}, nil
	case KindHintUsed:
		idx, err := requireIndex(env)
		if err != nil {
			return nil, err
		}
		var p hintUsedPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		return HintUsed{CardID: env.CardID, QuestionIndex: idx, HintNumber: p.HintNumber, HintText: p.HintText, At: env.Timestamp}, nil
	case KindResultsDisplay:
		var p resultsDisplayPayload
		if err := unmarshalPayload(env, &p); err != nil {
			return nil, err
		}
		for _, a := range p.Answers {
			if !ValidQuestionIndex(a.QuestionIndex) {
				return nil, fmt.Errorf("%w: answer questionIndex %d out of range", ErrInvalidEvent, a.QuestionIndex)
			}
		}
		return ResultsDisplay{CardID: env.CardID, TotalScore: p.TotalScore, MaxScore: p.MaxScore, Answers: p.Answers, At: env.Timestamp}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, env.Kind)
}

func requireIndex(env Envelope) (int, error) {
	if env.QuestionIndex == nil {
		return 0, fmt.Errorf("%w: %s without questionIndex", ErrInvalidEvent, env.Kind)
	}
	if !ValidQuestionIndex(*env.QuestionIndex) {
		return 0, fmt.Errorf("%w: questionIndex %d out of range", ErrInvalidEvent, *env.QuestionIndex)
	}
	return *env.QuestionIndex, nil
}

func unmarshalPayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s without payload", ErrInvalidEvent, env.Kind)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return nil
}

func intPtr(v int) *int { return &v }
