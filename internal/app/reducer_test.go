package app_test

import (
	"reflect"
	"testing"
	"time"

	"ttx-deepfake/internal/app"
	"ttx-deepfake/internal/domain"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func question(text string) domain.QuestionSnapshot {
	return domain.QuestionSnapshot{
		Question:      text,
		Scenario:      "<p>A cloned voice of the CFO calls the treasury desk.</p>",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: 1,
		Explanation:   "Verify out of band.",
		Hints:         []string{"Think about callbacks", "Use a known number"},
	}
}

func display(card string, idx int, text string) domain.QuestionDisplay {
	return domain.QuestionDisplay{CardID: card, QuestionIndex: idx, Question: question(text), At: t0.Add(time.Duration(idx) * time.Second)}
}

func TestReduceRedisplayIsIdempotent(t *testing.T) {
	ev := display("ransom", 0, "Q1")

	once, _ := app.Reduce(nil, ev)
	twice, _ := app.Reduce(once, ev)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("re-display changed the entry:\nonce  %+v\ntwice %+v", once, twice)
	}
	if len(twice.Questions) != 1 {
		t.Fatalf("expected slot overwrite, got %d question slots", len(twice.Questions))
	}
}

func TestReduceResultsKeepQuestionsAndSelections(t *testing.T) {
	ledger := app.NewLedger("c1")
	ledger.Apply(display("operational", 0, "q0"))
	ledger.Apply(display("operational", 1, "q1"))
	ledger.Apply(domain.AnswerSelection{CardID: "operational", QuestionIndex: 0, SelectedIndex: 2, SelectedText: "C", At: t0})
	entry, changed := ledger.Apply(domain.ResultsDisplay{CardID: "operational", TotalScore: 1, MaxScore: 5, At: t0.Add(time.Minute)})

	if !changed {
		t.Fatalf("expected results to change the ledger")
	}
	if len(entry.Questions) != 2 || entry.Questions[0].Question != "q0" || entry.Questions[1].Question != "q1" {
		t.Fatalf("questions lost after results: %+v", entry.Questions)
	}
	if entry.SelectedAnswers[0] == nil || entry.SelectedAnswers[0].SelectedAnswerIndex != 2 {
		t.Fatalf("selection lost after results: %+v", entry.SelectedAnswers)
	}
	if entry.TotalScore != 1 || entry.MaxScore != 5 || !entry.HasResults {
		t.Fatalf("scores not applied: %+v", entry)
	}
}

func TestReduceCardsAreIndependent(t *testing.T) {
	operational := []domain.Event{
		display("operational", 0, "op0"),
		domain.AnswerSelection{CardID: "operational", QuestionIndex: 0, SelectedIndex: 1, SelectedText: "B", At: t0},
		domain.ResultsDisplay{CardID: "operational", TotalScore: 4, MaxScore: 5, At: t0},
	}
	financial := []domain.Event{
		display("financial", 0, "fin0"),
		display("financial", 1, "fin1"),
		domain.AnswerSelection{CardID: "financial", QuestionIndex: 1, SelectedIndex: 3, SelectedText: "D", At: t0},
	}

	interleaved := app.NewLedger("c1")
	for i := 0; i < 3; i++ {
		interleaved.Apply(operational[i])
		interleaved.Apply(financial[i])
	}

	isolatedOp := app.NewLedger("c2")
	for _, ev := range operational {
		isolatedOp.Apply(ev)
	}
	isolatedFin := app.NewLedger("c3")
	for _, ev := range financial {
		isolatedFin.Apply(ev)
	}

	gotOp, _ := interleaved.Entry("operational")
	wantOp, _ := isolatedOp.Entry("operational")
	if !reflect.DeepEqual(gotOp, wantOp) {
		t.Fatalf("operational differs:\n%+v\n%+v", gotOp, wantOp)
	}
	gotFin, _ := interleaved.Entry("financial")
	wantFin, _ := isolatedFin.Entry("financial")
	if !reflect.DeepEqual(gotFin, wantFin) {
		t.Fatalf("financial differs:\n%+v\n%+v", gotFin, wantFin)
	}
}

func TestReduceDanglingAnswerIsNoop(t *testing.T) {
	ledger := app.NewLedger("c1")
	_, changed := ledger.Apply(domain.AnswerSelection{CardID: "legal", QuestionIndex: 0, SelectedIndex: 1, SelectedText: "B", At: t0})
	if changed {
		t.Fatalf("dangling answer must not change the ledger")
	}
	if _, ok := ledger.Entry("legal"); ok {
		t.Fatalf("dangling answer created an entry")
	}
	if !ledger.IsEmpty() {
		t.Fatalf("expected empty ledger")
	}
}

func TestReduceHintLeavesLedgerAlone(t *testing.T) {
	before, _ := app.Reduce(nil, display("technical", 0, "t0"))
	after, changed := app.Reduce(before, domain.HintUsed{CardID: "technical", QuestionIndex: 0, HintNumber: 1, At: t0})
	if changed || after != before {
		t.Fatalf("hint must not mutate the ledger")
	}
}

func TestReduceResultsBeforeQuestions(t *testing.T) {
	entry, changed := app.Reduce(nil, domain.ResultsDisplay{CardID: "reputational", TotalScore: 2, MaxScore: 5, At: t0})
	if !changed || entry == nil {
		t.Fatalf("results must create an entry")
	}
	if entry.CardTitle != "Reputational Damage" || len(entry.Questions) != 0 || len(entry.SelectedAnswers) != 0 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	rows := app.DrillDown(domain.RiskCardResult{
		Questions: []*domain.QuestionSnapshot{nil, {Question: "q1", Options: []string{"x", "y"}, CorrectAnswer: 0}},
		Answers:   []domain.AnswerSummary{{QuestionIndex: 0, IsCorrect: true, SelectedAnswer: "A", CorrectAnswer: "A"}},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Question != app.NotAvailable || rows[0].Selected != "A" || rows[0].IsCorrect == nil || !*rows[0].IsCorrect {
		t.Fatalf("unexpected placeholder row %+v", rows[0])
	}
	if rows[1].Question != "q1" || rows[1].Selected != app.NotAvailable || rows[1].Correct != "x" || rows[1].IsCorrect != nil {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestReduceAnswerChangeOverwrites(t *testing.T) {
	entry, _ := app.Reduce(nil, display("ransom", 2, "q2"))
	entry, _ = app.Reduce(entry, domain.AnswerSelection{CardID: "ransom", QuestionIndex: 2, SelectedIndex: 0, SelectedText: "A", At: t0})
	entry, _ = app.Reduce(entry, domain.AnswerSelection{CardID: "ransom", QuestionIndex: 2, SelectedIndex: 3, SelectedText: "D", At: t0})

	if len(entry.SelectedAnswers) != 3 || entry.SelectedAnswers[0] != nil || entry.SelectedAnswers[1] != nil {
		t.Fatalf("expected sparse selections, got %+v", entry.SelectedAnswers)
	}
	if entry.SelectedAnswers[2].SelectedAnswerIndex != 3 {
		t.Fatalf("expected last selection to win, got %+v", entry.SelectedAnswers[2])
	}
}

func TestReduceIgnoresNegativeIndex(t *testing.T) {
	entry, changed := app.Reduce(nil, domain.QuestionDisplay{CardID: "ransom", QuestionIndex: -1})
	if changed || entry != nil {
		t.Fatalf("negative index must be ignored")
	}
}

func TestRansomScenario(t *testing.T) {
	ledger := app.NewLedger("c1")
	ledger.Apply(domain.QuestionDisplay{
		CardID:        "ransom",
		QuestionIndex: 0,
		Question:      domain.QuestionSnapshot{Question: "Q1", Options: []string{"A", "B", "C", "D"}, CorrectAnswer: 1},
		At:            t0,
	})
	ledger.Apply(domain.AnswerSelection{CardID: "ransom", QuestionIndex: 0, SelectedIndex: 1, SelectedText: "B", At: t0})
	ledger.Apply(domain.ResultsDisplay{
		CardID:     "ransom",
		TotalScore: 5,
		MaxScore:   5,
		Answers:    []domain.AnswerSummary{{QuestionIndex: 0, IsCorrect: true, SelectedAnswer: "B", CorrectAnswer: "B"}},
		At:         t0,
	})

	entry, ok := ledger.Entry("ransom")
	if !ok {
		t.Fatalf("expected ransom entry")
	}
	if entry.CardTitle != "Ransom Pay" {
		t.Fatalf("expected title Ransom Pay, got %q", entry.CardTitle)
	}
	if entry.Questions[0].Question != "Q1" {
		t.Fatalf("expected Q1, got %q", entry.Questions[0].Question)
	}
	if entry.SelectedAnswers[0].SelectedAnswerIndex != 1 {
		t.Fatalf("expected selection 1, got %d", entry.SelectedAnswers[0].SelectedAnswerIndex)
	}
	if entry.TotalScore != 5 {
		t.Fatalf("expected score 5, got %d", entry.TotalScore)
	}
}

func TestReduceIgnoresOutOfRangeIndex(t *testing.T) {
	ledger := app.NewLedger("c1")
	huge := domain.MaxQuestionIndex + 50_000_000
	if _, changed := ledger.Apply(domain.QuestionDisplay{CardID: "ransom", QuestionIndex: huge, Question: question("q"), At: t0}); changed {
		t.Fatalf("out of range question must be ignored")
	}
	if !ledger.IsEmpty() {
		t.Fatalf("ledger must stay empty")
	}

	ledger.Apply(display("ransom", domain.MaxQuestionIndex, "last"))
	if _, changed := ledger.Apply(domain.AnswerSelection{CardID: "ransom", QuestionIndex: huge, SelectedIndex: 0, At: t0}); changed {
		t.Fatalf("out of range answer must be ignored")
	}
	ledger.Apply(domain.ResultsDisplay{CardID: "ransom", TotalScore: 1, MaxScore: 5, At: t0, Answers: []domain.AnswerSummary{
		{QuestionIndex: 0, IsCorrect: true},
		{QuestionIndex: huge},
	}})

	entry, _ := ledger.Entry("ransom")
	if len(entry.Questions) != domain.MaxQuestionIndex+1 || len(entry.SelectedAnswers) != 0 {
		t.Fatalf("unexpected slot counts %d/%d", len(entry.Questions), len(entry.SelectedAnswers))
	}
	if len(entry.Answers) != 1 {
		t.Fatalf("expected out of range summary dropped, got %+v", entry.Answers)
	}
}
