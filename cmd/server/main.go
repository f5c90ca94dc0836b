package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talos/internal/config"
	"talos/internal/handler"
	"talos/internal/service"
	"talos/internal/storage"
	"talos/internal/utils"
)

func main() {
	_ = godotenv.Load()
	utils.InitLogger()
	defer func() {
		_ = utils.Log.Sync()
	}()

	cfg := config.LoadConfig()

	// Dependencies
	store := storage.NewStorage(cfg.RedisHost, cfg.RedisPort)
	analyzer := service.NewAnalyzer(cfg)
	h := handler.NewHandler(store, analyzer, cfg)

	sched := service.NewScheduler(store, analyzer)
	sched.Start()
	defer sched.Stop()

	// Web Server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per second

	// Routes
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/analyze", h.Analyze)
	e.POST("/report/pdf", h.ReportPDF)
	e.GET("/history", h.History)
	e.GET("/watchlist", h.GetWatchlist)
	e.POST("/watchlist", h.AddWatchlistItem)
	e.DELETE("/watchlist", h.RemoveWatchlistItem)
	e.GET("/ws", h.HandleWS)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			utils.Log.Fatal("server stopped", utils.Field("error", err.Error()))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		utils.Log.Fatal("shutdown failed", utils.Field("error", err.Error()))
	}
}
