package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jo-hoe/gopassgen/internal/core"
	"github.com/jo-hoe/gopassgen/internal/generator"
	"github.com/jo-hoe/gopassgen/internal/store"
	"github.com/labstack/echo/v4"
)

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type GenerateRequest struct {
	Length  int  `query:"length" json:"length" validate:"min=6,max=100"`
	Numbers bool `query:"numbers" json:"allowNumbers"`
	Symbols bool `query:"symbols" json:"allowSymbols"`
}

type PasswordResponse struct {
	Password string `json:"password"`
	Length   int    `json:"length"`
}

type CreateEntryRequest struct {
	Website      string `json:"website" validate:"max=2048"`
	PasswordName string `json:"passwordName" validate:"max=2048"`
	Password     string `json:"password" validate:"max=1024"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	api := e.Group("/api")
	api.GET("/password", s.generatePasswordHandler)
	api.GET("/config", s.getGeneratorConfigHandler)
	api.PUT("/config", s.updateGeneratorConfigHandler)
	api.GET("/entries", s.listEntriesHandler)
	api.POST("/entries", s.createEntryHandler)
	api.DELETE("/entries/:index", s.deleteEntryHandler)
}

// generatePasswordHandler returns a one-off password. Missing query
// parameters fall back to the current generator config.
func (s *APIService) generatePasswordHandler(ctx echo.Context) error {
	current := s.coreService.GeneratorConfig()
	req := GenerateRequest{
		Length:  current.Length,
		Numbers: current.AllowNumbers,
		Symbols: current.AllowSymbols,
	}
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	password := s.coreService.GeneratePassword(req.toConfig())
	return ctx.JSON(http.StatusOK, PasswordResponse{Password: password, Length: len(password)})
}

func (s *APIService) getGeneratorConfigHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.coreService.GeneratorConfig())
}

// updateGeneratorConfigHandler stores the config and returns the recomputed
// current password.
func (s *APIService) updateGeneratorConfigHandler(ctx echo.Context) error {
	var req GenerateRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	password, err := s.coreService.UpdateGeneratorConfig(req.toConfig())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return ctx.JSON(http.StatusOK, PasswordResponse{Password: password, Length: len(password)})
}

func (s *APIService) listEntriesHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.coreService.Entries())
}

func (s *APIService) createEntryHandler(ctx echo.Context) error {
	var req CreateEntryRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	entry, err := s.coreService.SaveEntryWithPassword(ctx.Request().Context(), store.SavedEntry{
		Website:      req.Website,
		PasswordName: req.PasswordName,
		Password:     req.Password,
	})
	if err != nil {
		slog.Error("createEntryHandler: failed to save entry",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to save entry"})
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (s *APIService) deleteEntryHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		slog.Warn("deleteEntryHandler: invalid index",
			"status", http.StatusBadRequest, "index", ctx.Param("index"))
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid entry index"})
	}

	if err := s.coreService.DeleteEntry(ctx.Request().Context(), index); err != nil {
		if errors.Is(err, store.ErrIndexOutOfRange) {
			return ctx.JSON(http.StatusNotFound, errorResponse{Error: "Entry not found"})
		}
		slog.Error("deleteEntryHandler: failed to delete entry",
			"status", http.StatusInternalServerError, "index", index, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete entry"})
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (r GenerateRequest) toConfig() generator.Config {
	return generator.Config{
		Length:       r.Length,
		AllowNumbers: r.Numbers,
		AllowSymbols: r.Symbols,
	}
}
