package entity

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ItemType distinguishes the two kinds of plannable entities.
type ItemType string

const (
	TypeIngredient ItemType = "ingredient"
	TypeMeal       ItemType = "meal"
)

// DefaultGroup is the group label applied to plan items without one.
const DefaultGroup = "General"

// Nutrition is the per-entity nutrition vector.
type Nutrition struct {
	Calories float64 `json:"calories" validate:"gte=0,lte=10000"`
	Protein  float64 `json:"protein" validate:"gte=0,lte=500"`
	Carbs    float64 `json:"carbs" validate:"gte=0,lte=500"`
	Fat      float64 `json:"fat" validate:"gte=0,lte=500"`
}

// Add returns the component-wise sum of two nutrition vectors.
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Scale returns the nutrition vector multiplied by a quantity factor.
func (n Nutrition) Scale(q float64) Nutrition {
	return Nutrition{
		Calories: n.Calories * q,
		Protein:  n.Protein * q,
		Carbs:    n.Carbs * q,
		Fat:      n.Fat * q,
	}
}

// Ingredient is a single purchasable food item.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Nutrition Nutrition `json:"nutrition"`
	Price     float64   `json:"price" validate:"gte=0"`
}

// Meal is a prepared dish with aggregate nutrition.
type Meal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Nutrition Nutrition `json:"nutrition"`
	Price     float64   `json:"price" validate:"gte=0"`
}

// MealPlanItem places an ingredient or meal into a plan group. Items have
// no identity of their own; they live and die with their owning plan.
type MealPlanItem struct {
	Type     ItemType `json:"type" validate:"required,oneof=ingredient meal"`
	ItemID   string   `json:"itemId" validate:"required"`
	Quantity float64  `json:"quantity" validate:"gt=0"`
	Group    string   `json:"group"`
}

// MealPlan is an ordered arrangement of items into named groups.
type MealPlan struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId" validate:"required"`
	Name       string         `json:"name" validate:"required"`
	Items      []MealPlanItem `json:"items" validate:"dive"`
	Totals     Nutrition      `json:"totals"`
	TotalPrice float64        `json:"totalPrice" validate:"gte=0"`
}

var validate = validator.New()

// ValidationError wraps a field-level validation failure so callers can
// distinguish it from infrastructure errors.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation failed: %v", e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Validate checks field constraints on an ingredient.
func (i *Ingredient) Validate() error { return check(i) }

// Validate checks field constraints on a meal.
func (m *Meal) Validate() error { return check(m) }

// Validate checks field constraints on a plan and defaults empty item groups.
func (p *MealPlan) Validate() error {
	for idx := range p.Items {
		if p.Items[idx].Group == "" {
			p.Items[idx].Group = DefaultGroup
		}
	}
	return check(p)
}
