package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	apirest "github.com/eorzealink/server/api/rest"
	"github.com/eorzealink/server/audit"
	"github.com/eorzealink/server/cache"
	"github.com/eorzealink/server/catalog"
	"github.com/eorzealink/server/config"
	dbadapter "github.com/eorzealink/server/db"
	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/glamour"
	"github.com/eorzealink/server/loadout"
	mw "github.com/eorzealink/server/middleware"
	"github.com/eorzealink/server/model"
	"github.com/eorzealink/server/ownership"
	"github.com/eorzealink/server/proxy"
	"github.com/eorzealink/server/resolver"
	"github.com/eorzealink/server/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	oneShotURL := flag.String("url", "", "preview this loadout URL once, print the rows and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
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

	if cfg.Security.AccessKeyHash == "" {
		logger.Warn("security.access_key_hash is not set; login is disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Reference Catalog ----
	cat, err := catalog.NewLoader(cfg.Catalog.DataPath).Load()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	logger.Info("Catalog loaded",
		zap.Int("items", len(cat.Items)),
		zap.Int("stains", len(cat.Stains)),
	)

	// ---- Gateway / Pipeline ----
	gw := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, logger)
	proxyClient := proxy.NewClient(cfg.Proxy, proxy.NewCredentialStore(db), logger)
	res := resolver.New(cat)
	owners := ownership.NewChain(gw, cfg.Gateway.Tracker, logger)
	patcher := glamour.NewPatcher(gw, logger)

	svc := loadout.New(proxyClient, res, owners, patcher, c, auditSvc, db,
		cfg.Proxy.CacheTTL, logger)

	// ---- One-shot CLI mode ----
	if *oneShotURL != "" {
		runOneShot(svc, *oneShotURL)
		return
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("preview_prune", cfg.Retention.PruneInterval, func() {
		svc.PrunePreviews(cfg.Retention.PreviewKeep)
	})
	sched.AddTicker("audit_prune", cfg.Retention.PruneInterval, func() {
		auditSvc.Prune(cfg.Retention.AuditKeep)
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	authH := apirest.NewAuthHandler(c, cfg.Security)
	loadoutH := apirest.NewLoadoutHandler(svc)
	ownH := apirest.NewOwnershipHandler(owners)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		loadoutG := api.Group("/loadout")
		loadoutG.Use(mw.Auth(cfg.Security, c))
		loadoutG.POST("/preview", loadoutH.Preview)
		loadoutG.GET("", loadoutH.Get)
		loadoutG.POST("/apply", loadoutH.Apply)
		loadoutG.GET("/history", loadoutH.History)

		ownG := api.Group("/ownership")
		ownG.Use(mw.Auth(cfg.Security, c))
		ownG.GET("/:item_id", ownH.Check)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// runOneShot previews one URL synchronously and prints the row table.
func runOneShot(svc *loadout.Service, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := svc.Preview(ctx, url, "cli")
	if err != nil {
		log.Fatalf("preview: %v", err)
	}
	if snap.Title != "" {
		fmt.Printf("%s by %s\n", snap.Title, snap.Author)
	}
	for _, row := range snap.Rows {
		mark := "?"
		switch row.Own {
		case model.OwnHave:
			mark = "+"
		case model.OwnNotHave:
			mark = "-"
		}
		fmt.Printf("[%s] %-10s %s (%s)\n", mark, row.Slot, row.ItemName, row.OwnSource)
	}
	fmt.Println(snap.Status)
}
