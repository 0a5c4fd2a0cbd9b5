// Package store implements the per-entity record store on SQLite.
//
// Every repository follows the same contract: Find(filter), FindByID,
// Create, UpdateByID, RemoveByID. Ownership filters are always supplied
// by the caller layer, never inferred here.
package store

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned by UpdateByID and RemoveByID when no row matches.
var ErrNotFound = errors.New("record not found")

// Filter narrows Find results. A zero filter matches everything.
type Filter struct {
	UserID string
}

// Store bundles the per-entity repositories over one connection.
type Store struct {
	Ingredients *IngredientRepository
	Meals       *MealRepository
	MealPlans   *MealPlanRepository
}

// New creates a Store with all repositories sharing the given connection.
func New(db *sql.DB) *Store {
	return &Store{
		Ingredients: NewIngredientRepository(db),
		Meals:       NewMealRepository(db),
		MealPlans:   NewMealPlanRepository(db),
	}
}
