// Package router assembles the gin engine shared by the API binary and the
// integration tests.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"spendtree/internal/handlers"
	"spendtree/internal/middleware"
	"spendtree/internal/services"
)

// Services are the business services the HTTP layer depends on.
type Services struct {
	Users      services.UserServicer
	Categories services.CategoryServicer
	Expenses   services.ExpenseServicer
	Goals      services.GoalServicer
	Reports    services.ReportServicer
	Audit      services.AuditServicer
}

// Options tune the engine.
type Options struct {
	AllowedOrigins []string
	RequestLogging bool
	Swagger        bool
}

// New returns an engine with every route mounted under /api/v1.
func New(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	expenseHandler := handlers.NewExpenseHandler(svc.Expenses, svc.Audit)
	goalHandler := handlers.NewGoalHandler(svc.Goals, svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Reports)

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.RequestLogging {
		r.Use(middleware.RequestLogging())
	}
	r.Use(middleware.ErrorHandler())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.POST("/:id/children", categoryHandler.CreateChildCategory)
	categories.PATCH("/:id/rename", categoryHandler.RenameCategory)
	categories.PATCH("/:id/move", categoryHandler.MoveCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetUserExpenses)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/evaluate", goalHandler.EvaluateGoal)

	reports := protected.Group("/reports")
	reports.GET("/period", reportHandler.GetPeriodReport)
	reports.GET("/category-tree", reportHandler.GetCategoryTreeReport)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
