package api

import (
	"context"
	"net/http"
	"time"

	analysisHandler "food-analyzer/internal/api/handlers/analysis"
	"food-analyzer/internal/api/handlers/health"
	"food-analyzer/internal/api/middleware"
	coreanalysis "food-analyzer/internal/core/analysis"
	"food-analyzer/internal/core/analysis/cache"
	"food-analyzer/internal/core/analysis/pipeline"
	"food-analyzer/internal/core/analysis/rule"
	"food-analyzer/internal/core/analysis/score"
	"food-analyzer/internal/core/provider"
	"food-analyzer/internal/infrastructure/config"
	"food-analyzer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求體大小限制 (1MB)，純文字請求用不到更多
	maxBodySize = 1 << 20
)

// Stores 依設定建立的儲存層
type Stores struct {
	Cache   cache.Store
	Records score.RecordStore
}

// NewStores 依 cache.driver 建立快取與分數記錄儲存
func NewStores(cfg *config.Config) (*Stores, error) {
	if cfg.Cache.Driver == "redis" {
		cacheStore, err := cache.NewRedisStore(&cfg.Cache)
		if err != nil {
			return nil, err
		}
		records, err := score.NewRedisRecords(&cfg.Cache)
		if err != nil {
			cacheStore.Close()
			return nil, err
		}
		common.LogInfo("使用 Redis 儲存",
			zap.String("addr", cfg.Cache.Addr),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
		return &Stores{Cache: cacheStore, Records: records}, nil
	}

	common.LogInfo("使用記憶體儲存")
	return &Stores{
		Cache:   cache.NewMemoryStore(),
		Records: score.NewMemoryRecords(),
	}, nil
}

// Close 關閉儲存層連線
func (s *Stores) Close() {
	if s == nil {
		return
	}
	if s.Cache != nil {
		_ = s.Cache.Close()
	}
	if s.Records != nil {
		_ = s.Records.Close()
	}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, stores *Stores) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 重複請求去重與限流
	router.Use(middleware.Deduplication(cfg))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	common.LogInfo("Initializing services",
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("model", cfg.Generative.Model),
		zap.Duration("stage_timeout", cfg.Pipeline.StageTimeout),
		zap.Duration("total_timeout", cfg.Pipeline.TotalTimeout),
	)

	// 初始化外部供應商
	generativeSvc := provider.NewGenerativeService(cfg)
	nutritionSvc := provider.NewNutritionService(cfg)
	productSvc := provider.NewProductService(cfg)
	recipeSvc := provider.NewRecipeService(cfg)

	// 組裝分析管線與解析引擎
	pipe := pipeline.New(nutritionSvc, productSvc, generativeSvc, recipeSvc, cfg.Pipeline.StageTimeout)
	engine := coreanalysis.NewEngine(rule.NewTable(), stores.Cache, stores.Records, pipe, cfg.Pipeline.TotalTimeout)

	// 全局中間件：設置請求超時並注入服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Pipeline.TotalTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("cache_store", stores.Cache)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", cfg.Pipeline.TotalTimeout),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		analysisGroup := api.Group("/analysis")
		{
			// 同步分析
			analysisGroup.POST("", analysisHandler.HandleAnalyze(engine))

			// 串流分析，以 SSE 推送進度
			analysisGroup.POST("/stream", analysisHandler.HandleAnalyzeStream(engine))
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
