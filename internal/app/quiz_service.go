package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ttx-deepfake/internal/domain"
)

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, teamRole, cardID string) (domain.QuestionSet, error)
}

// SubmitInput is one completed risk card sent for scoring.
type SubmitInput struct {
	TeamRole   string             `json:"teamRole"`
	CardID     string             `json:"cardId"`
	Selections []domain.Selection `json:"selections"`
}

// CardStats aggregates every stored attempt at one risk card.
type CardStats struct {
	CardID       string  `json:"cardId"`
	Title        string  `json:"title"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"averageScore"`
	BestScore    int     `json:"bestScore"`
}

// UserProgress is one user's latest result per card, rendered as chart bars.
type UserProgress struct {
	User      domain.User         `json:"user"`
	Completed int                 `json:"completed"`
	Chart     []domain.ChartEntry `json:"chart"`
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	Cards       []CardStats    `json:"cards"`
	Users       []UserProgress `json:"users"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// QuizService contains the question and assessment use cases.
type QuizService struct {
	questions QuestionRepository
	accounts  AccountStore
	now       func() time.Time
}

func NewQuizService(questions QuestionRepository, accounts AccountStore) *QuizService {
	return &QuizService{questions: questions, accounts: accounts, now: time.Now}
}

// Questions returns the question set for a team role and card.
func (s *QuizService) Questions(ctx context.Context, teamRole, cardID string) (domain.QuestionSet, error) {
	if strings.TrimSpace(teamRole) == "" || strings.TrimSpace(cardID) == "" {
		return domain.QuestionSet{}, fmt.Errorf("%w: role and card are required", domain.ErrInvalidInput)
	}
	return s.questions.GetQuestionSet(ctx, teamRole, cardID)
}

// Submit scores a completed card against its question set and stores the result.
func (s *QuizService) Submit(ctx context.Context, userID string, in SubmitInput) (domain.Assessment, error) {
	set, err := s.Questions(ctx, in.TeamRole, in.CardID)
	if err != nil {
		return domain.Assessment{}, err
	}
	answers, total, err := scoreSelections(set, in.Selections)
	if err != nil {
		return domain.Assessment{}, err
	}
	assessment := domain.Assessment{
		ID:          uuid.New().String(),
		UserID:      userID,
		TeamRole:    set.TeamRole,
		CardID:      set.CardID,
		TotalScore:  total,
		MaxScore:    len(set.Questions),
		Answers:     answers,
		CompletedAt: s.now().UTC(),
	}
	if err := s.accounts.SaveAssessment(ctx, assessment); err != nil {
		return domain.Assessment{}, err
	}
	return assessment, nil
}

// Assessments lists a user's stored assessments.
func (s *QuizService) Assessments(ctx context.Context, userID string) ([]domain.Assessment, error) {
	return s.accounts.ListAssessments(ctx, userID)
}

// Users lists every registered account.
func (s *QuizService) Users(ctx context.Context) ([]domain.User, error) {
	return s.accounts.ListUsers(ctx)
}

// Analytics summarizes stored assessments per card and per user.
func (s *QuizService) Analytics(ctx context.Context) (Analytics, error) {
	users, err := s.accounts.ListUsers(ctx)
	if err != nil {
		return Analytics{}, err
	}
	all, err := s.accounts.ListAssessments(ctx, "")
	if err != nil {
		return Analytics{}, err
	}

	byUser := make(map[string][]domain.Assessment)
	stats := make(map[string]*CardStats)
	sums := make(map[string]int)
	for _, a := range all {
		byUser[a.UserID] = append(byUser[a.UserID], a)
		st, ok := stats[a.CardID]
		if !ok {
			st = &CardStats{CardID: a.CardID, Title: domain.CardTitle(a.CardID)}
			stats[a.CardID] = st
		}
		st.Attempts++
		sums[a.CardID] += a.TotalScore
		if a.TotalScore > st.BestScore {
			st.BestScore = a.TotalScore
		}
	}

	out := Analytics{GeneratedAt: s.now().UTC()}
	for _, card := range domain.RiskCards() {
		st, ok := stats[card.ID]
		if !ok {
			st = &CardStats{CardID: card.ID, Title: card.Title}
		}
		out.Cards = append(out.Cards, finishStats(st, sums[card.ID]))
		delete(stats, card.ID)
	}
	extra := make([]string, 0, len(stats))
	for id := range stats {
		extra = append(extra, id)
	}
	sort.Strings(extra)
	for _, id := range extra {
		out.Cards = append(out.Cards, finishStats(stats[id], sums[id]))
	}

	for _, u := range users {
		ledger := LatestResults(byUser[u.ID])
		out.Users = append(out.Users, UserProgress{User: u, Completed: len(ledger), Chart: ProjectChart(ledger)})
	}
	return out, nil
}

func finishStats(st *CardStats, sum int) CardStats {
	if st.Attempts > 0 {
		st.AverageScore = float64(sum) / float64(st.Attempts)
	}
	return *st
}

// LatestResults keeps each card's most recent assessment in ledger form so the
// chart projection can render stored progress the same way as live progress.
func LatestResults(assessments []domain.Assessment) map[string]domain.RiskCardResult {
	out := make(map[string]domain.RiskCardResult)
	for _, a := range assessments {
		if prev, ok := out[a.CardID]; ok && prev.Timestamp.After(a.CompletedAt) {
			continue
		}
		out[a.CardID] = domain.RiskCardResult{
			CardID:     a.CardID,
			CardTitle:  domain.CardTitle(a.CardID),
			TotalScore: a.TotalScore,
			MaxScore:   a.MaxScore,
			Answers:    a.Answers,
			HasResults: true,
			Timestamp:  a.CompletedAt,
		}
	}
	return out
}

// scoreSelections checks each selection against the question set. The last
// selection for a question wins; unanswered questions score zero.
func scoreSelections(set domain.QuestionSet, selections []domain.Selection) ([]domain.AnswerSummary, int, error) {
	chosen := make(map[int]domain.Selection, len(selections))
	for _, sel := range selections {
		if sel.QuestionIndex < 0 || sel.QuestionIndex >= len(set.Questions) {
			return nil, 0, domain.ErrQuestionNotFound
		}
		q := set.Questions[sel.QuestionIndex]
		if sel.SelectedIndex < 0 || sel.SelectedIndex >= len(q.Options) {
			return nil, 0, domain.ErrOptionNotFound
		}
		chosen[sel.QuestionIndex] = sel
	}

	answers := make([]domain.AnswerSummary, 0, len(set.Questions))
	total := 0
	for i, q := range set.Questions {
		summary := domain.AnswerSummary{QuestionIndex: i}
		if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			summary.CorrectAnswer = q.Options[q.CorrectAnswer]
		}
		if sel, ok := chosen[i]; ok {
			summary.SelectedAnswer = q.Options[sel.SelectedIndex]
			summary.HintsUsed = clamp(sel.HintsUsed, 0, maxHints)
			summary.IsCorrect = sel.SelectedIndex == q.CorrectAnswer
		}
		if summary.IsCorrect {
			total++
		}
		answers = append(answers, summary)
	}
	return answers, total, nil
}
