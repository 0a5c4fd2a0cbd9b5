package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mealboard/internal/entity"
)

// IngredientRepository handles persistence of ingredients.
type IngredientRepository struct {
	db *sql.DB
}

// NewIngredientRepository creates a new ingredient repository.
func NewIngredientRepository(d *sql.DB) *IngredientRepository {
	return &IngredientRepository{db: d}
}

// Find retrieves all ingredients matching the filter.
func (r *IngredientRepository) Find(ctx context.Context, f Filter) ([]entity.Ingredient, error) {
	query := `SELECT id, user_id, name, calories, protein, carbs, fat, price FROM ingredients`
	args := []any{}
	if f.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer rows.Close()

	var out []entity.Ingredient
	for rows.Next() {
		var ing entity.Ingredient
		if err := rows.Scan(&ing.ID, &ing.UserID, &ing.Name,
			&ing.Nutrition.Calories, &ing.Nutrition.Protein, &ing.Nutrition.Carbs, &ing.Nutrition.Fat,
			&ing.Price); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// FindByID retrieves a single ingredient, or nil when absent.
func (r *IngredientRepository) FindByID(ctx context.Context, id string) (*entity.Ingredient, error) {
	var ing entity.Ingredient
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, calories, protein, carbs, fat, price FROM ingredients WHERE id = ?`, id).
		Scan(&ing.ID, &ing.UserID, &ing.Name,
			&ing.Nutrition.Calories, &ing.Nutrition.Protein, &ing.Nutrition.Carbs, &ing.Nutrition.Fat,
			&ing.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingredient by ID: %w", err)
	}
	return &ing, nil
}

// Create inserts a new ingredient, assigning an id when empty.
func (r *IngredientRepository) Create(ctx context.Context, ing entity.Ingredient) (*entity.Ingredient, error) {
	if err := ing.Validate(); err != nil {
		return nil, err
	}
	if ing.ID == "" {
		ing.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, user_id, name, calories, protein, carbs, fat, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ing.ID, ing.UserID, ing.Name,
		ing.Nutrition.Calories, ing.Nutrition.Protein, ing.Nutrition.Carbs, ing.Nutrition.Fat,
		ing.Price, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ingredient: %w", err)
	}
	return &ing, nil
}

// UpdateByID overwrites a stored ingredient's mutable fields. Ownership is
// immutable: the stored user_id is never touched.
func (r *IngredientRepository) UpdateByID(ctx context.Context, id string, ing entity.Ingredient) (*entity.Ingredient, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	ing.ID = id
	ing.UserID = existing.UserID
	if err := ing.Validate(); err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE ingredients SET name = ?, calories = ?, protein = ?, carbs = ?, fat = ?, price = ?, updated_at = ?
		 WHERE id = ?`,
		ing.Name,
		ing.Nutrition.Calories, ing.Nutrition.Protein, ing.Nutrition.Carbs, ing.Nutrition.Fat,
		ing.Price, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update ingredient: %w", err)
	}
	return &ing, nil
}

// RemoveByID deletes an ingredient and returns its id.
func (r *IngredientRepository) RemoveByID(ctx context.Context, id string) (string, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		return "", fmt.Errorf("failed to delete ingredient: %w", err)
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
