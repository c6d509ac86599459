package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/services/inventory"
)

// IngredientService is implemented by *inventory.Service.
type IngredientService interface {
	Intake(ctx context.Context, ownerID uuid.UUID, req inventory.IntakeRequest) (*inventory.IntakeResult, error)
	List(ctx context.Context, ownerID uuid.UUID, status, category string) ([]entity.Ingredient, error)
	MarkUsed(ctx context.Context, ownerID, id uuid.UUID) (*entity.Ingredient, error)
}

// RecipeService is implemented by *recipes.Service.
type RecipeService interface {
	Request(ctx context.Context, ownerID uuid.UUID, req entity.RecipeRequest) (uuid.UUID, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Recipe, error)
	List(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Recipe, error)
}

// DashboardService is implemented by *dashboard.Service.
type DashboardService interface {
	Trends(ctx context.Context, ownerID uuid.UUID) ([]entity.UsageTrendPoint, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*entity.Statistics, error)
	Expiring(ctx context.Context, ownerID uuid.UUID) ([]entity.Ingredient, error)
	Popular(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.PopularIngredient, error)
	Categories(ctx context.Context, ownerID uuid.UUID) ([]entity.CategoryDistribution, error)
}

// Exporter is implemented by *export.Service.
type Exporter interface {
	ExportInventoryXLSX(ctx context.Context, ownerID uuid.UUID) ([]byte, error)
}

// Deps are the services the HTTP API is built on.
type Deps struct {
	Ingredients IngredientService
	Recipes     RecipeService
	Dashboard   DashboardService
	Export      Exporter
	// Ping reports database health for /healthz; nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter wires every route onto a gin engine.
func NewRouter(deps Deps, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	g := gin.New()
	g.MaxMultipartMemory = 32 << 20
	g.Use(gin.Recovery(), requestID(), accessLog(logger))

	h := &handlers{deps: deps, logger: logger}
	g.GET("/healthz", h.health)

	api := g.Group("/api")
	api.Use(requireOwner())
	{
		api.POST("/ingredients/images", h.uploadImage)
		api.GET("/ingredients", h.listIngredients)
		api.POST("/ingredients/:id/use", h.useIngredient)

		api.POST("/recipes", h.createRecipe)
		api.GET("/recipes", h.listRecipes)
		api.GET("/recipes/:id", h.getRecipe)

		api.GET("/dashboard/trends", h.trends)
		api.GET("/dashboard/stats", h.stats)
		api.GET("/dashboard/expiring", h.expiring)
		api.GET("/dashboard/popular", h.popular)
		api.GET("/dashboard/categories", h.categories)
		api.GET("/dashboard/export", h.export)
	}
	return g
}

// NewHTTPServer wraps the router with the timeouts the daemon runs with.
// WriteTimeout stays unset because image extraction waits on the agent.
func NewHTTPServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}

// maxUploadBody leaves room for multipart framing around a maximum-size image.
const maxUploadBody = constants.MaxImageBytes + 1<<20

type handlers struct {
	deps   Deps
	logger *slog.Logger
}
