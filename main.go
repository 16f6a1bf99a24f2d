package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/voxelforge/chronicle/api/rest"
	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/config"
	dbadapter "github.com/voxelforge/chronicle/db"
	"github.com/voxelforge/chronicle/lookup"
	mw "github.com/voxelforge/chronicle/middleware"
	"github.com/voxelforge/chronicle/model"
	"github.com/voxelforge/chronicle/queue"
	"github.com/voxelforge/chronicle/rollback"
	"github.com/voxelforge/chronicle/scheduler"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/tracking"
	"github.com/voxelforge/chronicle/world"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache ----
	c, err := cache.New(cache.Config{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()
	logger.Info("Cache initialized")

	// ---- Scheduler / write queue ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	q := queue.NewSerial(cfg.Tracking.QueueWarnDepth, logger)
	defer q.Close()

	// ---- World provider ----
	// The in-memory provider stands in until a host game embeds the
	// engine with its own implementation.
	worlds := world.NewMemProvider("world")

	// ---- Engine services ----
	st := store.NewLogStore(db, logger)
	if dropped, err := st.SweepUnreadable(context.Background()); err != nil {
		log.Fatalf("db sweep: %v", err)
	} else if dropped > 0 {
		logger.Warn("dropped unreadable log rows", zap.Int("rows", dropped))
	}
	trackers := tracking.NewSet(tracking.Deps{
		Store:        st,
		Queue:        q,
		Worlds:       worlds,
		Sched:        sched,
		Logger:       logger,
		TickDuration: time.Duration(cfg.Tracking.TickMs) * time.Millisecond,
	})
	limits := store.Limits{
		DefaultRadius: cfg.Rollback.DefaultRadius,
		MaxRadius:     cfg.Rollback.MaxRadius,
	}
	lookupSvc := lookup.New(st, c, limits, cfg.Rollback.LookupLines, logger)
	orch := rollback.New(st, trackers, worlds, c, limits, cfg.Rollback.RowsLimit, logger)

	// ---- Periodic tasks ----
	sched.AddTicker("queue_depth", time.Minute, func() {
		if d := q.Depth(); d > 0 {
			logger.Debug("write queue backlog", zap.Int("depth", d))
		}
	})

	// ---- Gin HTTP server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	r.Use(mw.IPWhitelist(cfg.Server.AllowedIPs))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	histH := apirest.NewHistoryHandler(lookupSvc, logger)
	rbH := apirest.NewRollbackHandler(orch, logger)
	adminH := apirest.NewAdminHandler(st, orch, q, sched, logger)

	api := r.Group("/api")
	{
		histG := api.Group("/history")
		histG.POST("/lookup", histH.Lookup)
		histG.POST("/near", histH.Near)
		histG.POST("/block", histH.Block)
		histG.POST("/transactions", histH.Transactions)
		histG.GET("/page", histH.Page)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.POST("/rollback", rbH.Rollback)
		adminG.POST("/restore", rbH.Restore)
		adminG.POST("/undo", rbH.Undo)
		adminG.POST("/purge", adminH.Purge)
		adminG.GET("/status", adminH.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
