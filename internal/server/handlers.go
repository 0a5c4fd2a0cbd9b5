package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealboard/internal/entity"
	"mealboard/internal/mutate"
	"mealboard/internal/store"
)

// Change-event names per entity kind. Create, update and delete all
// publish the same event; subscribers re-fetch the whole collection
// either way.
const (
	eventIngredient = "ingredientUpdated"
	eventMeal       = "mealUpdated"
	eventMealPlan   = "mealPlanUpdated"
)

func writeError(c *gin.Context, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.Is(err, mutate.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner of this record"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ownerFilter scopes list queries to the caller, letting the dev
// identity read any owner via the userId query parameter.
func (s *Server) ownerFilter(c *gin.Context) store.Filter {
	call := caller(c)
	if requested := c.Query("userId"); requested != "" {
		if s.interceptor.Authorize(call, mutate.Ownership{UserID: requested}) == nil {
			return store.Filter{UserID: requested}
		}
	}
	return store.Filter{UserID: call.Identity.ID}
}

// readAuthorized enforces the owner-or-dev rule on single-record reads.
func (s *Server) readAuthorized(c *gin.Context, ownerID string) bool {
	if err := s.interceptor.Authorize(caller(c), mutate.Ownership{UserID: ownerID}); err != nil {
		writeError(c, err)
		return false
	}
	return true
}

// --- Ingredients ---

func (s *Server) listIngredients(c *gin.Context) {
	records, err := s.store.Ingredients.Find(c.Request.Context(), s.ownerFilter(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getIngredient(c *gin.Context) {
	rec, err := s.store.Ingredients.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rec == nil {
		writeError(c, store.ErrNotFound)
		return
	}
	if !s.readAuthorized(c, rec.UserID) {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) createIngredient(c *gin.Context) {
	var body entity.Ingredient
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed ingredient"})
		return
	}
	call := caller(c)
	if body.UserID == "" {
		body.UserID = call.Identity.ID
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventIngredient, call,
		mutate.Ownership{RecordUserID: body.UserID},
		func(ctx context.Context) (*entity.Ingredient, error) {
			return s.store.Ingredients.Create(ctx, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateIngredient(c *gin.Context) {
	var body entity.Ingredient
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed ingredient"})
		return
	}
	id := c.Param("id")

	existing, err := s.store.Ingredients.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventIngredient, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.Ingredient, error) {
			return s.store.Ingredients.UpdateByID(ctx, id, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteIngredient(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.store.Ingredients.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	// The deleted snapshot is the event payload; the row is gone.
	_, err = mutate.Do(c.Request.Context(), s.interceptor, eventIngredient, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.Ingredient, error) {
			if _, err := s.store.Ingredients.RemoveByID(ctx, id); err != nil {
				return nil, err
			}
			return existing, nil
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// --- Meals ---

func (s *Server) listMeals(c *gin.Context) {
	records, err := s.store.Meals.Find(c.Request.Context(), s.ownerFilter(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getMeal(c *gin.Context) {
	rec, err := s.store.Meals.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rec == nil {
		writeError(c, store.ErrNotFound)
		return
	}
	if !s.readAuthorized(c, rec.UserID) {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) createMeal(c *gin.Context) {
	var body entity.Meal
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed meal"})
		return
	}
	call := caller(c)
	if body.UserID == "" {
		body.UserID = call.Identity.ID
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventMeal, call,
		mutate.Ownership{RecordUserID: body.UserID},
		func(ctx context.Context) (*entity.Meal, error) {
			return s.store.Meals.Create(ctx, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateMeal(c *gin.Context) {
	var body entity.Meal
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed meal"})
		return
	}
	id := c.Param("id")

	existing, err := s.store.Meals.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventMeal, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.Meal, error) {
			return s.store.Meals.UpdateByID(ctx, id, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteMeal(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.store.Meals.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	_, err = mutate.Do(c.Request.Context(), s.interceptor, eventMeal, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.Meal, error) {
			if _, err := s.store.Meals.RemoveByID(ctx, id); err != nil {
				return nil, err
			}
			return existing, nil
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// --- Meal plans ---

func (s *Server) listMealPlans(c *gin.Context) {
	records, err := s.store.MealPlans.Find(c.Request.Context(), s.ownerFilter(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getMealPlan(c *gin.Context) {
	rec, err := s.store.MealPlans.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rec == nil {
		writeError(c, store.ErrNotFound)
		return
	}
	if !s.readAuthorized(c, rec.UserID) {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) createMealPlan(c *gin.Context) {
	var body entity.MealPlan
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed meal plan"})
		return
	}
	call := caller(c)
	if body.UserID == "" {
		body.UserID = call.Identity.ID
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventMealPlan, call,
		mutate.Ownership{RecordUserID: body.UserID},
		func(ctx context.Context) (*entity.MealPlan, error) {
			return s.store.MealPlans.Create(ctx, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) updateMealPlan(c *gin.Context) {
	var body entity.MealPlan
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed meal plan"})
		return
	}
	id := c.Param("id")

	existing, err := s.store.MealPlans.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	rec, err := mutate.Do(c.Request.Context(), s.interceptor, eventMealPlan, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.MealPlan, error) {
			return s.store.MealPlans.UpdateByID(ctx, id, body)
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteMealPlan(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.store.MealPlans.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeError(c, store.ErrNotFound)
		return
	}

	_, err = mutate.Do(c.Request.Context(), s.interceptor, eventMealPlan, caller(c),
		mutate.Ownership{FilterUserID: existing.UserID},
		func(ctx context.Context) (*entity.MealPlan, error) {
			if _, err := s.store.MealPlans.RemoveByID(ctx, id); err != nil {
				return nil, err
			}
			return existing, nil
		})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// --- Metrics ---

func (s *Server) syncMetrics(c *gin.Context) {
	// Only the dev identity may read bus counters: an empty ownership
	// target resolves for nobody else.
	if err := s.interceptor.Authorize(caller(c), mutate.Ownership{}); err != nil {
		writeError(c, err)
		return
	}
	totals, err := s.metrics.Totals(c.Request.Context(), 7)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}
