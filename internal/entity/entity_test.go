package entity

import (
	"errors"
	"testing"
)

func TestIngredientValidate(t *testing.T) {
	base := Ingredient{
		UserID: "u1",
		Name:   "Rice",
		Nutrition: Nutrition{
			Calories: 200, Protein: 4, Carbs: 45, Fat: 0,
		},
		Price: 1.5,
	}

	t.Run("Valid", func(t *testing.T) {
		ing := base
		if err := ing.Validate(); err != nil {
			t.Fatalf("Expected valid ingredient, got %v", err)
		}
	})

	t.Run("NegativeCalories", func(t *testing.T) {
		ing := base
		ing.Nutrition.Calories = -1
		if err := ing.Validate(); err == nil {
			t.Fatal("Expected validation error for negative calories, got nil")
		}
	})

	t.Run("CaloriesOverCap", func(t *testing.T) {
		ing := base
		ing.Nutrition.Calories = 10001
		if err := ing.Validate(); err == nil {
			t.Fatal("Expected validation error for calories > 10000, got nil")
		}
	})

	t.Run("MacroOverCap", func(t *testing.T) {
		ing := base
		ing.Nutrition.Protein = 501
		if err := ing.Validate(); err == nil {
			t.Fatal("Expected validation error for protein > 500, got nil")
		}
	})

	t.Run("NegativePrice", func(t *testing.T) {
		ing := base
		ing.Price = -0.01
		err := ing.Validate()
		if err == nil {
			t.Fatal("Expected validation error for negative price, got nil")
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Expected a *ValidationError, got %T", err)
		}
	})

	t.Run("MissingOwner", func(t *testing.T) {
		ing := base
		ing.UserID = ""
		if err := ing.Validate(); err == nil {
			t.Fatal("Expected validation error for missing userId, got nil")
		}
	})
}

func TestMealPlanValidate(t *testing.T) {
	t.Run("DefaultsEmptyGroup", func(t *testing.T) {
		plan := MealPlan{
			UserID: "u1",
			Name:   "Week 35",
			Items: []MealPlanItem{
				{Type: TypeIngredient, ItemID: "i1", Quantity: 1},
			},
		}
		if err := plan.Validate(); err != nil {
			t.Fatalf("Expected valid plan, got %v", err)
		}
		if plan.Items[0].Group != DefaultGroup {
			t.Errorf("Expected group to default to %q, got %q", DefaultGroup, plan.Items[0].Group)
		}
	})

	t.Run("RejectsZeroQuantity", func(t *testing.T) {
		plan := MealPlan{
			UserID: "u1",
			Name:   "Week 35",
			Items: []MealPlanItem{
				{Type: TypeMeal, ItemID: "m1", Quantity: 0, Group: "Lunch"},
			},
		}
		if err := plan.Validate(); err == nil {
			t.Fatal("Expected validation error for zero quantity, got nil")
		}
	})

	t.Run("RejectsUnknownItemType", func(t *testing.T) {
		plan := MealPlan{
			UserID: "u1",
			Name:   "Week 35",
			Items: []MealPlanItem{
				{Type: "snack", ItemID: "s1", Quantity: 1, Group: "Lunch"},
			},
		}
		if err := plan.Validate(); err == nil {
			t.Fatal("Expected validation error for unknown item type, got nil")
		}
	})
}

func TestNutritionMath(t *testing.T) {
	rice := Nutrition{Calories: 200, Protein: 4, Carbs: 45, Fat: 0}
	oil := Nutrition{Calories: 120, Protein: 0, Carbs: 0, Fat: 14}

	total := rice.Scale(1).Add(oil.Scale(0.5))
	want := Nutrition{Calories: 260, Protein: 4, Carbs: 45, Fat: 7}
	if total != want {
		t.Errorf("Expected totals %+v, got %+v", want, total)
	}
}
