// internal/handler/router.go
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/cache"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/money"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes leaves room for a base64 profile photo in a JSON body.
const maxBodyBytes = 25 << 20

type Deps struct {
	Store       storage.Storage
	Tokens      *auth.TokenService
	Dashboard   *cache.Dashboard
	RateLimiter *middleware.RateLimiter
	Defaults    func() domain.CategoryTree

	RequestTimeout time.Duration
	SecureCookies  bool
	DetailedErrors bool
	PublicDir      string
	UploadDir      string
	MaxPhotoBytes  int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Dashboard == nil {
		d.Dashboard = cache.NewDashboard(nil, 0)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(d.SecureCookies),
		middleware.BodyLimit(maxBodyBytes),
	)
	if d.RequestTimeout > 0 {
		router.Use(middleware.Timeout(d.RequestTimeout))
	}

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			slog.Error("health check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.UploadDir != "" {
		router.Static("/uploads", d.UploadDir)
	}

	authMiddleware := middleware.NewAuthMiddleware(d.Tokens, d.SecureCookies)

	authHandler := NewAuthHandler(d.Store, d.Tokens, d.Defaults, d.SecureCookies, d.DetailedErrors)
	categoryHandler := NewCategoryHandler(d.Store, d.Dashboard, d.DetailedErrors)
	transactionHandler := NewTransactionHandler(d.Store, d.Dashboard, d.DetailedErrors)
	balanceHandler := NewBalanceHandler(d.Store, d.Dashboard, d.DetailedErrors)
	dashboardHandler := NewDashboardHandler(d.Store, d.Dashboard, money.NewINR(), d.DetailedErrors)
	profileHandler := NewProfileHandler(d.Store, d.UploadDir, d.MaxPhotoBytes, d.DetailedErrors)

	authGroup := router.Group("/api/auth")
	if d.RateLimiter != nil {
		authGroup.Use(d.RateLimiter.Middleware())
	}
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		authGroup.POST("/change-password", authMiddleware.RequireAuth(), authHandler.ChangePassword)
	}

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/categories", categoryHandler.List)
		api.POST("/categories", categoryHandler.Create)
		api.POST("/categories/bulk", categoryHandler.Bulk)
		api.GET("/categories/:id", categoryHandler.Get)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Delete)

		api.GET("/subcategories", categoryHandler.ListSub)
		api.POST("/subcategories", categoryHandler.CreateSub)
		api.GET("/subcategories/:id", categoryHandler.GetSub)
		api.PUT("/subcategories/:id", categoryHandler.UpdateSub)
		api.DELETE("/subcategories/:id", categoryHandler.DeleteSub)

		api.GET("/transactions", transactionHandler.List)
		api.POST("/transactions", transactionHandler.Create)
		api.GET("/transactions/:id", transactionHandler.Get)
		api.PUT("/transactions/:id", transactionHandler.Update)
		api.DELETE("/transactions/:id", transactionHandler.Delete)

		api.GET("/assets", balanceHandler.ListAssets)
		api.POST("/assets", balanceHandler.CreateAsset)
		api.PUT("/assets/:id", balanceHandler.UpdateAsset)
		api.DELETE("/assets/:id", balanceHandler.DeleteAsset)

		api.GET("/liabilities", balanceHandler.ListLiabilities)
		api.POST("/liabilities", balanceHandler.CreateLiability)
		api.PUT("/liabilities/:id", balanceHandler.UpdateLiability)
		api.DELETE("/liabilities/:id", balanceHandler.DeleteLiability)

		api.GET("/dashboard/summary", dashboardHandler.Summary)
		api.GET("/dashboard/net-worth-series", dashboardHandler.NetWorthSeries)
		api.GET("/dashboard/monthly", dashboardHandler.Monthly)
		api.GET("/dashboard/top-categories", dashboardHandler.TopCategories)

		api.GET("/profile", profileHandler.Get)
		api.POST("/profile", profileHandler.Update)
		api.POST("/profile/photo", profileHandler.UploadPhoto)
	}

	router.NoRoute(authMiddleware.AttachUserIfPresent(), NewPageHandler(d.PublicDir).Fallback)

	return router
}
