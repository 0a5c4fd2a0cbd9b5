package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealboard/internal/entity"
)

// MealRepository handles persistence of meals.
type MealRepository struct {
	db *sql.DB
}

// NewMealRepository creates a new meal repository.
func NewMealRepository(d *sql.DB) *MealRepository {
	return &MealRepository{db: d}
}

// Find retrieves all meals matching the filter.
func (r *MealRepository) Find(ctx context.Context, f Filter) ([]entity.Meal, error) {
	query := `SELECT id, user_id, name, calories, protein, carbs, fat, price FROM meals`
	args := []any{}
	if f.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var out []entity.Meal
	for rows.Next() {
		var m entity.Meal
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name,
			&m.Nutrition.Calories, &m.Nutrition.Protein, &m.Nutrition.Carbs, &m.Nutrition.Fat,
			&m.Price); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// FindByID retrieves a single meal, or nil when absent.
func (r *MealRepository) FindByID(ctx context.Context, id string) (*entity.Meal, error) {
	var m entity.Meal
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, calories, protein, carbs, fat, price FROM meals WHERE id = ?`, id).
		Scan(&m.ID, &m.UserID, &m.Name,
			&m.Nutrition.Calories, &m.Nutrition.Protein, &m.Nutrition.Carbs, &m.Nutrition.Fat,
			&m.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal by ID: %w", err)
	}
	return &m, nil
}

// Create inserts a new meal, assigning an id when empty.
func (r *MealRepository) Create(ctx context.Context, m entity.Meal) (*entity.Meal, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (id, user_id, name, calories, protein, carbs, fat, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name,
		m.Nutrition.Calories, m.Nutrition.Protein, m.Nutrition.Carbs, m.Nutrition.Fat,
		m.Price, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal: %w", err)
	}
	return &m, nil
}

// UpdateByID overwrites a stored meal's mutable fields, keeping ownership.
func (r *MealRepository) UpdateByID(ctx context.Context, id string, m entity.Meal) (*entity.Meal, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	m.ID = id
	m.UserID = existing.UserID
	if err := m.Validate(); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE meals SET name = ?, calories = ?, protein = ?, carbs = ?, fat = ?, price = ?, updated_at = ?
		 WHERE id = ?`,
		m.Name,
		m.Nutrition.Calories, m.Nutrition.Protein, m.Nutrition.Carbs, m.Nutrition.Fat,
		m.Price, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return &m, nil
}

// RemoveByID deletes a meal and returns its id.
func (r *MealRepository) RemoveByID(ctx context.Context, id string) (string, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete meal: %w", err)
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
