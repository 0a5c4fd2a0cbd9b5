// Package server exposes the HTTP and websocket surface: CRUD per entity
// kind, topic-scoped live streams, and sync metrics.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealboard/internal/auth"
	"mealboard/internal/metrics"
	"mealboard/internal/mutate"
	"mealboard/internal/store"
	"mealboard/internal/stream"
)

// Server wires the API surface over the record store and the sync core.
type Server struct {
	store       *store.Store
	auth        *auth.Service
	interceptor *mutate.Interceptor
	gateway     *stream.Gateway
	metrics     *metrics.Store
}

// New creates a Server.
func New(st *store.Store, authSvc *auth.Service, interceptor *mutate.Interceptor, gateway *stream.Gateway, metricsStore *metrics.Store) *Server {
	return &Server{
		store:       st,
		auth:        authSvc,
		interceptor: interceptor,
		gateway:     gateway,
		metrics:     metricsStore,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	v1 := router.Group("/v1")
	v1.Use(s.authenticate())
	{
		ingredients := v1.Group("/ingredients")
		{
			ingredients.GET("", s.listIngredients)
			ingredients.POST("", s.createIngredient)
			ingredients.GET("/:id", s.getIngredient)
			ingredients.PUT("/:id", s.updateIngredient)
			ingredients.DELETE("/:id", s.deleteIngredient)
		}
		meals := v1.Group("/meals")
		{
			meals.GET("", s.listMeals)
			meals.POST("", s.createMeal)
			meals.GET("/:id", s.getMeal)
			meals.PUT("/:id", s.updateMeal)
			meals.DELETE("/:id", s.deleteMeal)
		}
		mealplans := v1.Group("/mealplans")
		{
			mealplans.GET("", s.listMealPlans)
			mealplans.POST("", s.createMealPlan)
			mealplans.GET("/:id", s.getMealPlan)
			mealplans.PUT("/:id", s.updateMealPlan)
			mealplans.DELETE("/:id", s.deleteMealPlan)
		}

		v1.GET("/sync/:kind/ws", s.gateway.Handle())
		v1.GET("/metrics/sync", s.syncMetrics)
	}

	return router
}
