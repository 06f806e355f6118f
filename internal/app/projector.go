package app

import (
	"ttx-deepfake/internal/domain"
)

// maxHints is the number of hints each question offers.
const maxHints = 2

// NotAvailable is rendered for ledger slots whose events were never observed.
const NotAvailable = "Not available"

// Mirror maintains the MirroredState of the one client an admin is watching.
type Mirror struct {
	state domain.MirroredState
}

func NewMirror() *Mirror {
	return &Mirror{}
}

// Watch switches the mirrored client. State never carries over between clients.
func (m *Mirror) Watch(id domain.ConnectionID) {
	m.state = domain.MirroredState{Watched: id}
}

// Watched returns the mirrored client id.
func (m *Mirror) Watched() domain.ConnectionID {
	return m.state.Watched
}

// Apply folds ev into the mirror when it originates from the watched client.
// It reports whether the state changed.
func (m *Mirror) Apply(ev domain.RoutedEvent) bool {
	if m.state.Watched == "" || ev.Origin.ID != m.state.Watched || ev.Event == nil {
		return false
	}
	s := &m.state
	switch e := ev.Event.(type) {
	case domain.QuestionDisplay:
		if !domain.ValidQuestionIndex(e.QuestionIndex) {
			return false
		}
		if s.CurrentQuestion != nil && s.CurrentQuestion.CardID != e.CardID {
			s.HintsRevealed = nil
		}
		if s.CurrentQuestion == nil || s.CurrentQuestion.CardID != e.CardID || s.CurrentQuestion.QuestionIndex != e.QuestionIndex {
			s.CurrentAnswer = nil
		}
		s.CurrentQuestion = &domain.QuestionView{CardID: e.CardID, QuestionIndex: e.QuestionIndex, Question: cloneQuestion(e.Question)}
		return true

	case domain.AnswerSelection:
		if !domain.ValidQuestionIndex(e.QuestionIndex) {
			return false
		}
		s.CurrentAnswer = &domain.AnswerView{
			CardID:        e.CardID,
			QuestionIndex: e.QuestionIndex,
			SelectedIndex: e.SelectedIndex,
			SelectedText:  e.SelectedText,
		}
		return true

	case domain.HintUsed:
		if !domain.ValidQuestionIndex(e.QuestionIndex) {
			return false
		}
		count := clamp(e.HintNumber, 0, maxHints)
		for len(s.HintsRevealed) <= e.QuestionIndex {
			s.HintsRevealed = append(s.HintsRevealed, 0)
		}
		if count <= s.HintsRevealed[e.QuestionIndex] {
			return false
		}
		s.HintsRevealed[e.QuestionIndex] = count
		return true

	case domain.ResultsDisplay:
		res := e
		res.Answers = validAnswers(e.Answers)
		s.LatestResults = &res
		return true
	}
	return false
}

// State returns a copy of the mirrored state.
func (m *Mirror) State() domain.MirroredState {
	out := m.state
	out.HintsRevealed = append([]int(nil), m.state.HintsRevealed...)
	return out
}

// ProjectMirror folds events from scratch into the state for watched.
func ProjectMirror(events []domain.RoutedEvent, watched domain.ConnectionID) domain.MirroredState {
	m := NewMirror()
	m.Watch(watched)
	for _, ev := range events {
		m.Apply(ev)
	}
	return m.State()
}

// ProjectChart renders the ledger as one bar per known risk card in canonical
// order. Cards without results are shown incomplete in the placeholder colour.
func ProjectChart(ledger map[string]domain.RiskCardResult) []domain.ChartEntry {
	cards := domain.RiskCards()
	out := make([]domain.ChartEntry, 0, len(cards))
	for _, card := range cards {
		entry := domain.ChartEntry{
			CardID:     card.ID,
			Name:       card.Title,
			TotalCount: domain.QuestionsPerCard,
			Color:      domain.PlaceholderColor,
		}
		if result, ok := ledger[card.ID]; ok && result.HasResults {
			entry.Completed = true
			entry.CorrectCount = clamp(result.TotalScore, 0, domain.QuestionsPerCard)
			entry.Color = card.Color
		}
		out = append(out, entry)
	}
	return out
}

// DrillDown lists every question slot the entry knows about, substituting
// NotAvailable for anything the reducer never saw.
func DrillDown(entry domain.RiskCardResult) []domain.QuestionRow {
	n := min(len(entry.Questions), domain.MaxQuestionIndex+1)
	if len(entry.SelectedAnswers) > n {
		n = min(len(entry.SelectedAnswers), domain.MaxQuestionIndex+1)
	}
	summaries := make(map[int]domain.AnswerSummary, len(entry.Answers))
	for _, a := range entry.Answers {
		if !domain.ValidQuestionIndex(a.QuestionIndex) {
			continue
		}
		summaries[a.QuestionIndex] = a
		if a.QuestionIndex >= n {
			n = a.QuestionIndex + 1
		}
	}

	rows := make([]domain.QuestionRow, 0, n)
	for i := 0; i < n; i++ {
		row := domain.QuestionRow{QuestionIndex: i, Question: NotAvailable, Selected: NotAvailable, Correct: NotAvailable}
		var q *domain.QuestionSnapshot
		if i < len(entry.Questions) {
			q = entry.Questions[i]
		}
		if q != nil {
			row.Question = q.Question
			if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
				row.Correct = q.Options[q.CorrectAnswer]
			}
		}
		if i < len(entry.SelectedAnswers) && entry.SelectedAnswers[i] != nil {
			row.Selected = entry.SelectedAnswers[i].SelectedAnswerText
		}
		if s, ok := summaries[i]; ok {
			correct := s.IsCorrect
			row.IsCorrect = &correct
			row.HintsUsed = s.HintsUsed
			if row.Selected == NotAvailable && s.SelectedAnswer != "" {
				row.Selected = s.SelectedAnswer
			}
			if row.Correct == NotAvailable && s.CorrectAnswer != "" {
				row.Correct = s.CorrectAnswer
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
