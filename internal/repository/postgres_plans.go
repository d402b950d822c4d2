package repository

import (
	"context"
	"database/sql"
	"fmt"

	"winnersfit-data/internal/domain"
)

// PostgresPlansRepository 套餐Repository实现
type PostgresPlansRepository struct {
	db *sql.DB
}

// NewPostgresPlansRepository 创建套餐Repository
func NewPostgresPlansRepository(db *sql.DB) *PostgresPlansRepository {
	return &PostgresPlansRepository{db: db}
}

var _ PlansRepository = (*PostgresPlansRepository)(nil)

// ListPlans 套餐目录
func (r *PostgresPlansRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	query := `
		SELECT plan_id, name, price, duration_days
		FROM plans
		ORDER BY duration_days ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Duration); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// SeedPlans 批量 upsert 默认套餐（目录为空时一次性播种）
func (r *PostgresPlansRepository) SeedPlans(ctx context.Context, plans []domain.Plan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed plans: begin: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO plans (plan_id, name, price, duration_days)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (plan_id)
		DO UPDATE SET name = EXCLUDED.name,
		              price = EXCLUDED.price,
		              duration_days = EXCLUDED.duration_days
	`
	for _, p := range plans {
		if _, err := tx.ExecContext(ctx, query, p.ID, p.Name, p.Price, p.Duration); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}
