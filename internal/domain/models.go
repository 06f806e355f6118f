package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionID identifies one live socket for its whole lifetime.
type ConnectionID string

func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New().String())
}

// Role is the part a live connection plays in a session.
type Role string

const (
	RoleUnclaimed Role = "unclaimed"
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
)

// Identity is what a prior authentication step says about a connection's user.
type Identity struct {
	UserID  string `json:"userId"`
	Name    string `json:"userName"`
	Email   string `json:"userEmail"`
	IsAdmin bool   `json:"-"`
}

// ConnectionInfo is the registry's record of one live connection.
type ConnectionInfo struct {
	ID             ConnectionID `json:"id"`
	Role           Role         `json:"role"`
	ConnectedAt    time.Time    `json:"connectedAt"`
	LastActivityAt time.Time    `json:"lastActivityAt"`
	UserID         string       `json:"userId,omitempty"`
	UserName       string       `json:"userName,omitempty"`
	UserEmail      string       `json:"userEmail,omitempty"`
}

// QuestionSnapshot is the full content of one multiple-choice question as shown to a player.
type QuestionSnapshot struct {
	Question      string   `json:"question"`
	Scenario      string   `json:"scenario,omitempty"` // HTML
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Hints         []string `json:"hints,omitempty"`
}

// QuestionSet is the ordered question list for one team role and risk card.
type QuestionSet struct {
	TeamRole  string             `json:"teamRole"`
	CardID    string             `json:"cardId"`
	Questions []QuestionSnapshot `json:"questions"`
}

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	TeamRole     string    `json:"teamRole"`
	IsAdmin      bool      `json:"isAdmin"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity returns the live-connection identity for u.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

// Selection is one answer a player submits for scoring.
type Selection struct {
	QuestionIndex int `json:"questionIndex"`
	SelectedIndex int `json:"selectedIndex"`
	HintsUsed     int `json:"hintsUsed"`
}

// Assessment is a completed, scored risk card.
type Assessment struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	TeamRole    string          `json:"teamRole"`
	CardID      string          `json:"cardId"`
	TotalScore  int             `json:"totalScore"`
	MaxScore    int             `json:"maxScore"`
	Answers     []AnswerSummary `json:"answers"`
	CompletedAt time.Time       `json:"completedAt"`
}
