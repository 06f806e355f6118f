package watch

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/lipgloss"

	"ttx-deepfake/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(domain.PlaceholderColor))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A")).Padding(0, 1)
)

const nameWidth = 24

// Render draws the mirrored screen, the drill-down for the card on screen and
// the progress chart.
func Render(client domain.ConnectionInfo, state domain.MirroredState, chart []domain.ChartEntry, rows map[string][]domain.QuestionRow) string {
	var b strings.Builder
	who := string(client.ID)
	if client.UserName != "" {
		who = fmt.Sprintf("%s <%s>", client.UserName, client.UserEmail)
	}
	b.WriteString(titleStyle.Render("Watching "+who) + "\n")
	b.WriteString(panelStyle.Render(RenderMirror(state)) + "\n")
	if card := currentCard(state); card != "" && len(rows[card]) > 0 {
		b.WriteString(RenderRows(card, rows[card]))
	}
	b.WriteString(RenderChart(chart))
	return b.String()
}

// RenderMirror draws the question, selection and hints the client currently sees.
func RenderMirror(state domain.MirroredState) string {
	if state.CurrentQuestion == nil {
		return mutedStyle.Render("Waiting for the next question...")
	}
	q := state.CurrentQuestion
	var b strings.Builder
	fmt.Fprintf(&b, "%s  Q%d\n", titleStyle.Render(domain.CardTitle(q.CardID)), q.QuestionIndex+1)
	if scenario := ScenarioText(q.Question.Scenario); scenario != "" {
		b.WriteString(mutedStyle.Render(scenario) + "\n\n")
	}
	b.WriteString(q.Question.Question + "\n")
	for i, opt := range q.Question.Options {
		line := fmt.Sprintf("  %c) %s", 'A'+rune(i), opt)
		if a := state.CurrentAnswer; a != nil && a.CardID == q.CardID && a.QuestionIndex == q.QuestionIndex && a.SelectedIndex == i {
			line = selectedStyle.Render("> " + strings.TrimLeft(line, " "))
		}
		b.WriteString(line + "\n")
	}
	hints := 0
	if q.QuestionIndex < len(state.HintsRevealed) {
		hints = state.HintsRevealed[q.QuestionIndex]
	}
	for i := 0; i < hints && i < len(q.Question.Hints); i++ {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Hint %d: %s", i+1, q.Question.Hints[i])) + "\n")
	}
	if r := state.LatestResults; r != nil {
		fmt.Fprintf(&b, "Last result: %s %d/%d\n", domain.CardTitle(r.CardID), r.TotalScore, r.MaxScore)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderRows draws the drill-down table for one card.
func RenderRows(cardID string, rows []domain.QuestionRow) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(domain.CardTitle(cardID)+" answers") + "\n")
	for _, row := range rows {
		mark := mutedStyle.Render("-")
		if row.IsCorrect != nil {
			mark = "✗"
			if *row.IsCorrect {
				mark = "✓"
			}
		}
		fmt.Fprintf(&b, "%s Q%d %s\n", mark, row.QuestionIndex+1, row.Question)
		fmt.Fprintf(&b, "    selected: %s  correct: %s\n", row.Selected, row.Correct)
	}
	return b.String()
}

func currentCard(state domain.MirroredState) string {
	if state.CurrentQuestion != nil {
		return state.CurrentQuestion.CardID
	}
	if state.LatestResults != nil {
		return state.LatestResults.CardID
	}
	return ""
}

// RenderChart draws one bar per risk card.
func RenderChart(chart []domain.ChartEntry) string {
	var b strings.Builder
	for _, bar := range chart {
		name := bar.Name
		if len(name) > nameWidth {
			name = name[:nameWidth]
		}
		filled := strings.Repeat("█", bar.CorrectCount)
		empty := strings.Repeat("░", max(bar.TotalCount-bar.CorrectCount, 0))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(bar.Color))
		status := mutedStyle.Render("pending")
		if bar.Completed {
			status = fmt.Sprintf("%d/%d", bar.CorrectCount, bar.TotalCount)
		}
		fmt.Fprintf(&b, "%-*s %s%s %s\n", nameWidth, name, style.Render(filled), mutedStyle.Render(empty), status)
	}
	return b.String()
}

// ScenarioText converts scenario HTML to markdown for the terminal. Conversion
// failures fall back to the raw text.
func ScenarioText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}
