package domain

import (
	"unicode"
	"unicode/utf8"
)

// QuestionsPerCard is the fixed chart denominator for every risk card.
const QuestionsPerCard = 5

// MaxQuestionIndex is the highest question slot a ledger or mirror holds.
const MaxQuestionIndex = 63

// ValidQuestionIndex reports whether idx addresses a question slot.
func ValidQuestionIndex(idx int) bool {
	return idx >= 0 && idx <= MaxQuestionIndex
}

// PlaceholderColor is used for cards without results yet.
const PlaceholderColor = "#9CA3AF"

// RiskCard is a named category of quiz questions and the grouping key for scoring.
type RiskCard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// riskCards is in canonical chart order.
var riskCards = []RiskCard{
	{ID: "ransom", Title: "Ransom Pay", Color: "#EF4444"},
	{ID: "operational", Title: "Operational Disruption", Color: "#F59E0B"},
	{ID: "financial", Title: "Financial Fraud", Color: "#10B981"},
	{ID: "reputational", Title: "Reputational Damage", Color: "#3B82F6"},
	{ID: "legal", Title: "Legal & Regulatory", Color: "#8B5CF6"},
	{ID: "communication", Title: "Crisis Communication", Color: "#EC4899"},
	{ID: "technical", Title: "Technical Response", Color: "#14B8A6"},
}

// RiskCards returns the known cards in canonical order.
func RiskCards() []RiskCard {
	out := make([]RiskCard, len(riskCards))
	copy(out, riskCards)
	return out
}

// LookupCard returns the static entry for id.
func LookupCard(id string) (RiskCard, bool) {
	for _, c := range riskCards {
		if c.ID == id {
			return c, true
		}
	}
	return RiskCard{}, false
}

// CardTitle resolves a display label; unknown ids fall back to the capitalized id.
func CardTitle(id string) string {
	if c, ok := LookupCard(id); ok {
		return c.Title
	}
	r, size := utf8.DecodeRuneInString(id)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + id[size:]
}
