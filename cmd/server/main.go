package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/config"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/entity"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/handler"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/repository"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/mes/service"
	"github.com/PrateekJainKhera/MultiHitechERP-Backend-sub005/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting mes-stock service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate stock tables", zap.Error(err))
	}
	zapLogger.Info("Stock database migration completed")

	// 初始化 Redis（不可用时降级，锁与缓存退化为进程内实现）
	rdb := initRedis(cfg.Redis, zapLogger)

	// 组装依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mes-stock"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "mes-stock"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mes-stock"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "mes-stock",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Stock API v1
	v1 := router.Group("/api/v1/mes")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 材料主数据
		materials := v1.Group("/materials")
		{
			materials.GET("", handlers.Material.List)
			materials.POST("", handlers.Material.Create)
			materials.GET("/:id", handlers.Material.Get)
		}

		// 收货单
		grns := v1.Group("/grns")
		{
			grns.GET("", handlers.GRN.List)
			grns.POST("", handlers.GRN.Submit)
			grns.GET("/:id", handlers.GRN.Get)
			grns.GET("/:id/pieces", handlers.GRN.Pieces)
			grns.POST("/:id/approve", handlers.GRN.Approve)
			grns.POST("/:id/reject", handlers.GRN.Reject)
		}

		// 领料单
		requisitions := v1.Group("/requisitions")
		{
			requisitions.GET("", handlers.Requisition.List)
			requisitions.POST("", handlers.Requisition.Create)
			requisitions.GET("/:id", handlers.Requisition.Get)
		}

		// 切割方案
		drafts := v1.Group("/drafts")
		{
			drafts.GET("", handlers.Draft.List)
			drafts.POST("", handlers.Draft.Plan)
			drafts.GET("/:id", handlers.Draft.Get)
			drafts.POST("/:id/issue", handlers.Draft.Issue)
			drafts.POST("/:id/cancel", handlers.Draft.Cancel)
		}

		// 料件台账
		pieces := v1.Group("/pieces")
		{
			pieces.GET("", handlers.Piece.List)
			pieces.GET("/:id", handlers.Piece.Get)
			pieces.POST("/:id/status", handlers.Piece.MarkStatus)
			pieces.GET("/:id/conservation", handlers.Piece.Conservation)
		}

		// 库存
		stock := v1.Group("/stock")
		{
			stock.GET("/alerts", handlers.Inventory.Alerts)
			stock.GET("/transactions", handlers.Inventory.Transactions)
			stock.POST("/adjust", handlers.Inventory.Adjust)
			stock.GET("/:material_id", handlers.Inventory.Stock)
			stock.GET("/:material_id/conservation", handlers.Inventory.Conservation)
		}

		// 耗用与报表
		v1.GET("/usage", handlers.Report.Usage)
		reports := v1.Group("/reports")
		{
			reports.GET("/usage/export", handlers.Report.ExportUsage)
			reports.GET("/stock/export", handlers.Report.ExportStock)
		}
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Stock server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down stock server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Stock server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	if cfg.Host == "" {
		zapLogger.Warn("Redis not configured, falling back to in-process locks and uncached reads")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zapLogger.Warn("Redis unreachable, falling back to in-process locks and uncached reads", zap.Error(err))
		return nil
	}
	return rdb
}
