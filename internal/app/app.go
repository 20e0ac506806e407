package app

import (
	"context"
	"iqtest_backend/internal/config"
	"iqtest_backend/internal/controller"
	"iqtest_backend/internal/repository"
	"iqtest_backend/internal/service"
	"iqtest_backend/pkg/configwatcher"
	"iqtest_backend/pkg/database"
	"iqtest_backend/pkg/logger"
	"iqtest_backend/pkg/monitoring"
	"iqtest_backend/pkg/security"
	"iqtest_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	tracerProvider interface {
		Shutdown(ctx context.Context) error
	}
}

type repositories struct {
	user        *repository.UserRepository
	question    *repository.QuestionRepository
	testResult  *repository.TestResultRepository
	transaction *repository.TransactionRepository
}

type services struct {
	auth   *service.AuthService
	test   *service.TestService
	ledger *service.LedgerService
}

type controllers struct {
	auth        *controller.AuthController
	test        *controller.TestController
	transaction *controller.TransactionController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		question:    repository.NewQuestionRepository(db, rdb),
		testResult:  repository.NewTestResultRepository(db),
		transaction: repository.NewTransactionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	return &services{
		auth:   service.NewAuthService(repos.user, cfg),
		test:   service.NewTestService(repos.question, repos.testResult, cfg),
		ledger: service.NewLedgerService(repos.user, repos.transaction),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		test:        controller.NewTestController(s.test),
		transaction: controller.NewTransactionController(s.ledger),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 每个请求从配置快照取限流参数，配置热更后立即生效
	router.Use(security.RateLimiter(func() (int, time.Duration) {
		policy := cfg.RateLimitPolicy()
		window := time.Duration(policy.WindowMinutes) * time.Minute
		if window <= 0 {
			window = time.Minute
		}
		maxRequests := policy.MaxRequests
		if maxRequests <= 0 {
			maxRequests = 600
		}
		return maxRequests, window
	}))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, database.ShouldMigrate(cfg.Server.Mode, cfg.ForceMigrate))
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("iqtest-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, cfg)

	// 测试策略等可热更配置：通过快照替换发布，持有 cfg 指针的服务
	// 下一次读取即可见
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		cfg.ApplyReload(newCfg)
		logger.Log.Info("Config reloaded",
			zap.Int("questionCount", newCfg.Test.QuestionCount),
			zap.Int("durationMinutes", newCfg.Test.DurationMinutes),
		)
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
