package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"ttx-deepfake/internal/domain"
)

// Seeder upserts question sets into the question_sets table.
type Seeder struct {
	db     *bun.DB
	logger *slog.Logger
}

func NewSeeder(db *bun.DB, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{db: db, logger: logger}
}

// Run writes every set in one transaction. Existing rows for the same role and
// card are replaced.
func (s *Seeder) Run(ctx context.Context, sets []domain.QuestionSet) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, set := range sets {
			data, err := json.Marshal(set.Questions)
			if err != nil {
				return fmt.Errorf("marshal %s/%s: %w", set.TeamRole, set.CardID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO question_sets (team_role, card_id, data, updated_at) VALUES (?, ?, ?::jsonb, now())
				 ON CONFLICT (team_role, card_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
				set.TeamRole, set.CardID, string(data)); err != nil {
				return fmt.Errorf("upsert %s/%s: %w", set.TeamRole, set.CardID, err)
			}
		}
		s.logger.Info("question bank seeded", "sets", len(sets))
		return nil
	})
}
