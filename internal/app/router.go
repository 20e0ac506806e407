package app

import (
	"iqtest_backend/internal/config"
	"iqtest_backend/internal/middleware"
	"iqtest_backend/internal/model"
	"iqtest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/profile", c.auth.GetProfile)

		test := authGroup.Group("/test")
		{
			test.GET("/questions", c.test.GetQuestions)
			test.POST("/submit", c.test.SubmitTest)
			test.GET("/history", c.test.GetHistory)
			test.GET("/result/:id", c.test.GetResultDetail)
		}

		transactions := authGroup.Group("/transactions")
		{
			transactions.GET("/balance", c.transaction.GetBalance)
			transactions.POST("/transfer", c.transaction.Transfer)
			transactions.GET("/history", c.transaction.GetHistory)
			transactions.GET("/users/search", c.transaction.SearchUsers)

			admin := transactions.Group("/admin")
			admin.Use(middleware.RoleMiddleware(model.RoleAdmin))
			{
				admin.PATCH("/:id/status", c.transaction.SettleTransaction)
				admin.GET("/all", c.transaction.GetAllTransactions)
			}
		}
	}
}
