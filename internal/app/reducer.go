package app

import (
	"sort"
	"sync"

	"ttx-deepfake/internal/domain"
)

// Reduce folds one event into the ledger entry for the event's card. current is
// nil when the card has no entry yet. The returned entry is a fresh copy; current
// is never mutated. The bool reports whether the ledger changed.
//
// Reduce is total: unusable input leaves the ledger as it was.
func Reduce(current *domain.RiskCardResult, ev domain.Event) (*domain.RiskCardResult, bool) {
	switch e := ev.(type) {
	case domain.QuestionDisplay:
		if !domain.ValidQuestionIndex(e.QuestionIndex) {
			return current, false
		}
		next := cloneOrCreate(current, e.CardID)
		q := cloneQuestion(e.Question)
		next.Questions = setSlot(next.Questions, e.QuestionIndex, &q)
		next.Timestamp = e.At
		return next, true

	case domain.AnswerSelection:
		// An answer cannot precede its question.
		if current == nil || !domain.ValidQuestionIndex(e.QuestionIndex) {
			return current, false
		}
		next := cloneOrCreate(current, e.CardID)
		next.SelectedAnswers = setSlot(next.SelectedAnswers, e.QuestionIndex, &domain.SelectedAnswer{
			SelectedAnswerIndex: e.SelectedIndex,
			SelectedAnswerText:  e.SelectedText,
		})
		next.Timestamp = e.At
		return next, true

	case domain.HintUsed:
		return current, false

	case domain.ResultsDisplay:
		// Questions and selections are not part of the results payload and are
		// carried over from the existing entry.
		next := cloneOrCreate(current, e.CardID)
		next.TotalScore = e.TotalScore
		next.MaxScore = e.MaxScore
		next.Answers = validAnswers(e.Answers)
		next.HasResults = true
		next.Timestamp = e.At
		return next, true
	}
	return current, false
}

// validAnswers copies the summaries that address a real question slot.
func validAnswers(in []domain.AnswerSummary) []domain.AnswerSummary {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.AnswerSummary, 0, len(in))
	for _, a := range in {
		if domain.ValidQuestionIndex(a.QuestionIndex) {
			out = append(out, a)
		}
	}
	return out
}

func cloneOrCreate(current *domain.RiskCardResult, cardID string) *domain.RiskCardResult {
	if current == nil {
		return &domain.RiskCardResult{
			CardID:    cardID,
			CardTitle: domain.CardTitle(cardID),
		}
	}
	next := *current
	next.Questions = append([]*domain.QuestionSnapshot(nil), current.Questions...)
	next.SelectedAnswers = append([]*domain.SelectedAnswer(nil), current.SelectedAnswers...)
	next.Answers = append([]domain.AnswerSummary(nil), current.Answers...)
	return &next
}

func cloneQuestion(q domain.QuestionSnapshot) domain.QuestionSnapshot {
	q.Options = append([]string(nil), q.Options...)
	q.Hints = append([]string(nil), q.Hints...)
	return q
}

// setSlot writes v at idx, growing the sparse slice with nil slots as needed.
func setSlot[T any](slots []*T, idx int, v *T) []*T {
	for len(slots) <= idx {
		slots = append(slots, nil)
	}
	slots[idx] = v
	return slots
}

// Ledger holds one client session's entries keyed by card id. Each ledger has
// its own lock so two sessions never contend.
type Ledger struct {
	sessionID domain.ConnectionID

	mu      sync.RWMutex
	entries map[string]*domain.RiskCardResult
}

func NewLedger(sessionID domain.ConnectionID) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		entries:   make(map[string]*domain.RiskCardResult),
	}
}

// SessionID returns the client session the ledger belongs to.
func (l *Ledger) SessionID() domain.ConnectionID {
	return l.sessionID
}

// Apply reduces ev into the ledger and returns the resulting entry for ev's card.
// The entry is zero and the bool false when the card still has no entry.
func (l *Ledger) Apply(ev domain.Event) (domain.RiskCardResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.entries[ev.Card()]
	next, changed := Reduce(current, ev)
	if changed {
		l.entries[ev.Card()] = next
	}
	if next == nil {
		return domain.RiskCardResult{}, false
	}
	return *next, changed
}

// Entry returns a copy of the entry for cardID.
func (l *Ledger) Entry(cardID string) (domain.RiskCardResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[cardID]
	if !ok {
		return domain.RiskCardResult{}, false
	}
	return *cloneOrCreate(entry, cardID), true
}

// Snapshot copies every entry.
func (l *Ledger) Snapshot() map[string]domain.RiskCardResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]domain.RiskCardResult, len(l.entries))
	for id, entry := range l.entries {
		out[id] = *cloneOrCreate(entry, id)
	}
	return out
}

// Entries returns the entries ordered by card id.
func (l *Ledger) Entries() []domain.RiskCardResult {
	snap := l.Snapshot()
	out := make([]domain.RiskCardResult, 0, len(snap))
	for _, entry := range snap {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out
}

// Reset drops every entry.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*domain.RiskCardResult)
}

// IsEmpty reports whether no card has been observed.
func (l *Ledger) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries) == 0
}
