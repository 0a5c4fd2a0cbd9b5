package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mealboard/internal/database"
	"mealboard/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db.SQL)
}

func TestIngredientRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ing := entity.Ingredient{
		UserID:    "u1",
		Name:      "Rice",
		Nutrition: entity.Nutrition{Calories: 200, Protein: 4, Carbs: 45},
		Price:     1.2,
	}

	created, err := s.Ingredients.Create(ctx, ing)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected a generated id, got empty string")
	}

	t.Run("FindByID", func(t *testing.T) {
		got, err := s.Ingredients.FindByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got == nil || got.Name != "Rice" {
			t.Fatalf("Expected ingredient 'Rice', got %+v", got)
		}
	})

	t.Run("FindByID-Missing", func(t *testing.T) {
		got, err := s.Ingredients.FindByID(ctx, "nope")
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got != nil {
			t.Fatalf("Expected nil for missing id, got %+v", got)
		}
	})

	t.Run("FindFiltersByOwner", func(t *testing.T) {
		if _, err := s.Ingredients.Create(ctx, entity.Ingredient{UserID: "u2", Name: "Oil"}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		mine, err := s.Ingredients.Find(ctx, Filter{UserID: "u1"})
		if err != nil {
			t.Fatalf("Find failed: %v", err)
		}
		if len(mine) != 1 {
			t.Errorf("Expected 1 ingredient for u1, got %d", len(mine))
		}
	})

	t.Run("UpdateKeepsOwnership", func(t *testing.T) {
		patch := *created
		patch.UserID = "intruder"
		patch.Name = "Brown Rice"
		updated, err := s.Ingredients.UpdateByID(ctx, created.ID, patch)
		if err != nil {
			t.Fatalf("UpdateByID failed: %v", err)
		}
		if updated.UserID != "u1" {
			t.Errorf("Expected ownership to stay 'u1', got '%s'", updated.UserID)
		}
		if updated.Name != "Brown Rice" {
			t.Errorf("Expected name 'Brown Rice', got '%s'", updated.Name)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		_, err := s.Ingredients.UpdateByID(ctx, "nope", *created)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		bad := entity.Ingredient{UserID: "u1", Name: "Lard", Nutrition: entity.Nutrition{Fat: 900}}
		if _, err := s.Ingredients.Create(ctx, bad); err == nil {
			t.Fatal("Expected validation error for fat > 500, got nil")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		id, err := s.Ingredients.RemoveByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("RemoveByID failed: %v", err)
		}
		if id != created.ID {
			t.Errorf("Expected removed id '%s', got '%s'", created.ID, id)
		}
		if _, err := s.Ingredients.RemoveByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second remove, got %v", err)
		}
	})
}

func TestMealPlanRepositoryItemsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	plan := entity.MealPlan{
		UserID: "u1",
		Name:   "Week 35",
		Items: []entity.MealPlanItem{
			{Type: entity.TypeIngredient, ItemID: "i1", Quantity: 1, Group: "Lunch"},
			{Type: entity.TypeMeal, ItemID: "m1", Quantity: 2, Group: "Dinner"},
		},
		Totals:     entity.Nutrition{Calories: 900, Protein: 30, Carbs: 80, Fat: 20},
		TotalPrice: 12.5,
	}

	created, err := s.MealPlans.Create(ctx, plan)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := s.MealPlans.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected plan, got nil")
	}
	if len(got.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(got.Items))
	}
	if got.Items[1].Group != "Dinner" || got.Items[1].Quantity != 2 {
		t.Errorf("Item round trip mangled: %+v", got.Items[1])
	}
	if got.Totals.Calories != 900 {
		t.Errorf("Expected totals calories 900, got %f", got.Totals.Calories)
	}

	t.Run("UpdateReplacesItems", func(t *testing.T) {
		patch := *got
		patch.Items = []entity.MealPlanItem{
			{Type: entity.TypeIngredient, ItemID: "i2", Quantity: 3, Group: "Breakfast"},
		}
		updated, err := s.MealPlans.UpdateByID(ctx, got.ID, patch)
		if err != nil {
			t.Fatalf("UpdateByID failed: %v", err)
		}
		if len(updated.Items) != 1 || updated.Items[0].ItemID != "i2" {
			t.Errorf("Expected replaced items, got %+v", updated.Items)
		}
	})
}
