package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"ttx-deepfake/internal/domain"
)

// AccountStore keeps users and assessments in Postgres through bun.
type AccountStore struct {
	db *bun.DB
}

func NewAccountStore(db *bun.DB) *AccountStore {
	return &AccountStore{db: db}
}

type userModel struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	TeamRole     string    `bun:"team_role"`
	IsAdmin      bool      `bun:"is_admin,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type assessmentModel struct {
	bun.BaseModel `bun:"table:assessments"`

	ID          string                 `bun:"id,pk"`
	UserID      string                 `bun:"user_id,notnull"`
	TeamRole    string                 `bun:"team_role"`
	CardID      string                 `bun:"card_id,notnull"`
	TotalScore  int                    `bun:"total_score,notnull"`
	MaxScore    int                    `bun:"max_score,notnull"`
	Answers     []domain.AnswerSummary `bun:"answers,type:jsonb"`
	CompletedAt time.Time              `bun:"completed_at,notnull"`
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func (s *AccountStore) CreateUser(ctx context.Context, user domain.User) error {
	m := userModel{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		TeamRole:     user.TeamRole,
		IsAdmin:      user.IsAdmin,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		if pgCode(err) == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *AccountStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m userModel
	err := s.db.NewSelect().Model(&m).Where("email = ?", email).Scan(ctx)
	return userResult(m, err)
}

func (s *AccountStore) UserByID(ctx context.Context, id string) (domain.User, error) {
	var m userModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	return userResult(m, err)
}

func (s *AccountStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC", "email ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *AccountStore) SaveAssessment(ctx context.Context, a domain.Assessment) error {
	m := assessmentModel{
		ID:          a.ID,
		UserID:      a.UserID,
		TeamRole:    a.TeamRole,
		CardID:      a.CardID,
		TotalScore:  a.TotalScore,
		MaxScore:    a.MaxScore,
		Answers:     a.Answers,
		CompletedAt: a.CompletedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *AccountStore) ListAssessments(ctx context.Context, userID string) ([]domain.Assessment, error) {
	var rows []assessmentModel
	q := s.db.NewSelect().Model(&rows).Order("completed_at ASC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	out := make([]domain.Assessment, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.Assessment{
			ID:          m.ID,
			UserID:      m.UserID,
			TeamRole:    m.TeamRole,
			CardID:      m.CardID,
			TotalScore:  m.TotalScore,
			MaxScore:    m.MaxScore,
			Answers:     m.Answers,
			CompletedAt: m.CompletedAt,
		})
	}
	return out, nil
}

func userResult(m userModel, err error) (domain.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return m.toDomain(), nil
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		TeamRole:     m.TeamRole,
		IsAdmin:      m.IsAdmin,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func pgCode(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}
