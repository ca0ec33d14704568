package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jo-hoe/gopassgen/internal/backend"
	"github.com/jo-hoe/gopassgen/internal/common"
	"github.com/jo-hoe/gopassgen/internal/core"
	"github.com/jo-hoe/gopassgen/internal/frontend"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

func getConfigPath() string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

// loadConfig falls back to defaults when no config file exists at the
// default location.
func loadConfig(configPath string) (*core.ServiceConfig, error) {
	config, err := core.LoadConfig(configPath)
	if err == nil {
		return config, nil
	}
	if os.Getenv("CONFIG_PATH") == "" && errors.Is(err, os.ErrNotExist) {
		slog.Warn("no config file found, using defaults", "path", configPath)
		return core.DefaultConfig(), nil
	}
	return nil, err
}

func main() {
	configPath := getConfigPath()
	config, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	coreService, err := core.NewCoreService(config)
	if err != nil {
		slog.Error("failed to start core service", "error", err)
		os.Exit(1)
	}

	server := defineServer()
	backend.NewAPIService(config, coreService).SetRoutes(server)
	frontend.NewFrontendService(config, coreService).SetRoutes(server)

	address := fmt.Sprintf(":%d", config.Port)
	go func() {
		slog.Info("starting server", "address", address, "database", config.Database.Type)
		if err := server.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := coreService.Close(); err != nil {
		slog.Error("core service close error", "error", err)
	}
}

func defineServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("%s %s (route=%s) - Status: %d - Latency: %v - Error: %v - RemoteIP: %s",
					v.Method, v.URI, v.RoutePath, v.Status, v.Latency, v.Error, v.RemoteIP)
			} else {
				log.Printf("%s %s (route=%s) - Status: %d - Latency: %v - RemoteIP: %s",
					v.Method, v.URI, v.RoutePath, v.Status, v.Latency, v.RemoteIP)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}
