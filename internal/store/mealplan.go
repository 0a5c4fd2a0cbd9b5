package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealboard/internal/entity"
)

// MealPlanRepository handles persistence of meal plans. Plan items are
// stored as a JSON column; they have no identity outside their plan.
type MealPlanRepository struct {
	db *sql.DB
}

// NewMealPlanRepository creates a new meal plan repository.
func NewMealPlanRepository(d *sql.DB) *MealPlanRepository {
	return &MealPlanRepository{db: d}
}

func scanPlan(scan func(...any) error) (*entity.MealPlan, error) {
	var p entity.MealPlan
	var itemsJSON string
	if err := scan(&p.ID, &p.UserID, &p.Name, &itemsJSON,
		&p.Totals.Calories, &p.Totals.Protein, &p.Totals.Carbs, &p.Totals.Fat,
		&p.TotalPrice); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &p.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan items: %w", err)
	}
	return &p, nil
}

// Find retrieves all meal plans matching the filter.
func (r *MealPlanRepository) Find(ctx context.Context, f Filter) ([]entity.MealPlan, error) {
	query := `SELECT id, user_id, name, items, calories, protein, carbs, fat, total_price FROM meal_plans`
	args := []any{}
	if f.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal plans: %w", err)
	}
	defer rows.Close()

	var out []entity.MealPlan
	for rows.Next() {
		p, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// FindByID retrieves a single meal plan, or nil when absent.
func (r *MealPlanRepository) FindByID(ctx context.Context, id string) (*entity.MealPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, items, calories, protein, carbs, fat, total_price FROM meal_plans WHERE id = ?`, id)
	p, err := scanPlan(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal plan by ID: %w", err)
	}
	return p, nil
}

// Create inserts a new meal plan, assigning an id when empty.
func (r *MealPlanRepository) Create(ctx context.Context, p entity.MealPlan) (*entity.MealPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Items == nil {
		p.Items = []entity.MealPlanItem{}
	}
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan items: %w", err)
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, name, items, calories, protein, carbs, fat, total_price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, string(itemsJSON),
		p.Totals.Calories, p.Totals.Protein, p.Totals.Carbs, p.Totals.Fat,
		p.TotalPrice, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return &p, nil
}

// UpdateByID overwrites a stored plan's name, items and totals, keeping
// ownership.
func (r *MealPlanRepository) UpdateByID(ctx context.Context, id string, p entity.MealPlan) (*entity.MealPlan, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	p.ID = id
	p.UserID = existing.UserID
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Items == nil {
		p.Items = []entity.MealPlanItem{}
	}
	itemsJSON, err := json.Marshal(p.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE meal_plans SET name = ?, items = ?, calories = ?, protein = ?, carbs = ?, fat = ?, total_price = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, string(itemsJSON),
		p.Totals.Calories, p.Totals.Protein, p.Totals.Carbs, p.Totals.Fat,
		p.TotalPrice, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update meal plan: %w", err)
	}
	return &p, nil
}

// RemoveByID deletes a meal plan and returns its id.
func (r *MealPlanRepository) RemoveByID(ctx context.Context, id string) (string, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete meal plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return "", ErrNotFound
	}
	return id, nil
}
