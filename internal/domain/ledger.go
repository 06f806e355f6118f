package domain

import "time"

// SelectedAnswer is the latest option a player picked for one question slot.
type SelectedAnswer struct {
	SelectedAnswerIndex int    `json:"selectedAnswerIndex"`
	SelectedAnswerText  string `json:"selectedAnswerText"`
}

// RiskCardResult is the ledger entry for one risk card within one client session.
// Questions and SelectedAnswers are sparse and indexed by question index; a nil
// slot means the event for it was never observed.
type RiskCardResult struct {
	CardID          string              `json:"cardId"`
	CardTitle       string              `json:"cardTitle"`
	Questions       []*QuestionSnapshot `json:"questions"`
	SelectedAnswers []*SelectedAnswer   `json:"selectedAnswers"`
	TotalScore      int                 `json:"totalScore"`
	MaxScore        int                 `json:"maxScore"`
	Answers         []AnswerSummary     `json:"answers"`
	HasResults      bool                `json:"hasResults"`
	Timestamp       time.Time           `json:"timestamp"`
}

// QuestionView is the question currently on a watched client's screen.
type QuestionView struct {
	CardID        string           `json:"cardId"`
	QuestionIndex int              `json:"questionIndex"`
	Question      QuestionSnapshot `json:"question"`
}

// AnswerView is the answer currently selected on a watched client's screen.
type AnswerView struct {
	CardID        string `json:"cardId"`
	QuestionIndex int    `json:"questionIndex"`
	SelectedIndex int    `json:"selectedIndex"`
	SelectedText  string `json:"selectedText"`
}

// MirroredState is the admin-side replica of what the watched client sees.
type MirroredState struct {
	Watched         ConnectionID    `json:"watched,omitempty"`
	CurrentQuestion *QuestionView   `json:"currentQuestion"`
	CurrentAnswer   *AnswerView     `json:"currentAnswer"`
	HintsRevealed   []int           `json:"hintsRevealed"`
	LatestResults   *ResultsDisplay `json:"latestResults"`
}

// ChartEntry is one bar of the per-card progress chart.
type ChartEntry struct {
	CardID       string `json:"cardId"`
	Name         string `json:"name"`
	CorrectCount int    `json:"correctCount"`
	TotalCount   int    `json:"totalCount"`
	Color        string `json:"color"`
	Completed    bool   `json:"completed"`
}

// QuestionRow is one line of the drill-down table for a ledger entry.
type QuestionRow struct {
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Selected      string `json:"selected"`
	Correct       string `json:"correct"`
	IsCorrect     *bool  `json:"isCorrect"`
	HintsUsed     int    `json:"hintsUsed"`
}
