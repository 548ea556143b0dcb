package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"leadflow/internal/clock"
	"leadflow/internal/config"
	"leadflow/internal/database"
	"leadflow/internal/domain/lead"
	"leadflow/internal/middleware"
	jwtsvc "leadflow/internal/pkg/jwt"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	leadRepo := lead.NewRepository(db)
	if cfg.AutoMigrate {
		log.Println("Running AutoMigrate...")
		if err := leadRepo.Migrate(context.Background()); err != nil {
			log.Fatal("AutoMigrate failed:", err)
		}
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	leadHandler := lead.NewHandler(lead.NewService(leadRepo, j, clock.Real()))

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(), middleware.RequestLogger(), middleware.CORS(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		lead.RegisterPublicRoutes(v1, leadHandler)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			lead.RegisterRoutes(protected, leadHandler)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("api listening addr=%s env=%s", cfg.HTTPAddr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error=%v", err)
	}
}
