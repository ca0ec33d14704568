package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jo-hoe/gopassgen/internal/core"
	"github.com/jo-hoe/gopassgen/internal/generator"
	"github.com/jo-hoe/gopassgen/internal/store"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"
	mimePNG      = "image/png"
	mimeSVG      = "image/svg+xml"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	renderer    *Template
	icon        *iconRenderer
}

type outputView struct {
	Password string
	Length   int
	OOB      bool
}

type entryView struct {
	Index int
	store.SavedEntry
}

type listView struct {
	Entries []entryView
	OOB     bool
}

type pageView struct {
	Config    generator.Config
	MinLength int
	MaxLength int
	Output    outputView
	List      listView
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
		renderer:    newTemplate(),
		icon:        newIconRenderer(config.Frontend.IconSize),
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = service.renderer

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)

	e.POST("/htmx/generate", service.htmxGenerateHandler)
	e.POST("/htmx/regenerate", service.htmxRegenerateHandler)

	// Routes for listing, saving and deleting entries
	e.GET("/htmx/entries", service.htmxListEntriesHandler)
	e.POST("/htmx/entries", service.htmxSaveEntryHandler)
	e.DELETE("/htmx/entries/:index", service.htmxDeleteEntryHandler)

	e.GET("/icon.svg", service.iconHandler)
	e.GET("/icon.png", service.iconPNGHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	cfg := service.coreService.GeneratorConfig()
	page := pageView{
		Config:    cfg,
		MinLength: generator.MinLength,
		MaxLength: generator.MaxLength,
		Output:    outputView{Password: service.coreService.Password(), Length: cfg.Length},
		List:      listView{Entries: service.entryViews()},
	}
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, page)
}

// htmxGenerateHandler applies the submitted generator settings and returns
// the recomputed password panel plus the length label.
func (service *FrontendService) htmxGenerateHandler(ctx echo.Context) error {
	length, err := strconv.Atoi(strings.TrimSpace(ctx.FormValue("length")))
	if err != nil {
		slog.Warn("htmxGenerateHandler: invalid length",
			"status", http.StatusBadRequest, "length", ctx.FormValue("length"))
		return ctx.String(http.StatusBadRequest, "Invalid length")
	}
	cfg := generator.Config{
		Length:       length,
		AllowNumbers: formBool(ctx.FormValue("numbers")),
		AllowSymbols: formBool(ctx.FormValue("symbols")),
	}

	password, err := service.coreService.UpdateGeneratorConfig(cfg)
	if err != nil {
		slog.Warn("htmxGenerateHandler: rejected generator config",
			"status", http.StatusBadRequest, "error", err)
		return ctx.String(http.StatusBadRequest, "Invalid generator settings")
	}

	output := outputView{Password: password, Length: cfg.Length}
	return service.renderFragments(ctx, fragment{"password-output", output}, fragment{"length-value", outputView{Length: cfg.Length, OOB: true}})
}

func (service *FrontendService) htmxRegenerateHandler(ctx echo.Context) error {
	password := service.coreService.Regenerate()
	cfg := service.coreService.GeneratorConfig()
	return service.renderFragments(ctx, fragment{"password-output", outputView{Password: password, Length: cfg.Length}})
}

func (service *FrontendService) htmxListEntriesHandler(ctx echo.Context) error {
	// Prevent caching so the latest entries are always shown
	service.setNoCache(ctx)
	return service.renderFragments(ctx, fragment{"entry-list", listView{Entries: service.entryViews()}})
}

// htmxSaveEntryHandler saves the current password and returns a status
// message with out-of-band updates for the list and the cleared password.
func (service *FrontendService) htmxSaveEntryHandler(ctx echo.Context) error {
	website := strings.TrimSpace(ctx.FormValue("website"))
	name := strings.TrimSpace(ctx.FormValue("passwordName"))

	entry, err := service.coreService.SaveEntry(ctx.Request().Context(), website, name)
	if err != nil {
		slog.Error("htmxSaveEntryHandler: failed to save entry",
			"status", http.StatusInternalServerError, "error", err)
		return service.renderFragmentsWithStatus(ctx, http.StatusInternalServerError, fragment{"save-result", "Failed to save password"})
	}

	cfg := service.coreService.GeneratorConfig()
	service.setNoCache(ctx)
	return service.renderFragments(ctx,
		fragment{"save-result", fmt.Sprintf("Saved password for %s", displayName(entry))},
		fragment{"entry-list", listView{Entries: service.entryViews(), OOB: true}},
		fragment{"password-output", outputView{Password: service.coreService.Password(), Length: cfg.Length, OOB: true}},
	)
}

func (service *FrontendService) htmxDeleteEntryHandler(ctx echo.Context) error {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		slog.Warn("htmxDeleteEntryHandler: invalid entry index",
			"status", http.StatusBadRequest,
			"route", "/htmx/entries/:index", "index", ctx.Param("index"))
		return ctx.String(http.StatusBadRequest, "Invalid entry index")
	}

	if err := service.coreService.DeleteEntry(ctx.Request().Context(), index); err != nil {
		if errors.Is(err, store.ErrIndexOutOfRange) {
			slog.Warn("htmxDeleteEntryHandler: entry not found",
				"status", http.StatusNotFound, "index", index)
			return ctx.String(http.StatusNotFound, "Entry not found")
		}
		slog.Error("htmxDeleteEntryHandler: failed to delete entry",
			"status", http.StatusInternalServerError, "index", index, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to delete entry")
	}

	// Prevent caching so the latest state is shown
	service.setNoCache(ctx)
	return service.renderFragments(ctx, fragment{"entry-list", listView{Entries: service.entryViews()}})
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimeSVG, data)
}

func (service *FrontendService) iconPNGHandler(ctx echo.Context) error {
	data, err := service.icon.png()
	if err != nil {
		slog.Error("iconPNGHandler: failed to rasterize icon", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, mimePNG, data)
}

type fragment struct {
	name string
	data any
}

// renderFragments concatenates the named templates into one HTML response.
func (service *FrontendService) renderFragments(ctx echo.Context, fragments ...fragment) error {
	return service.renderFragmentsWithStatus(ctx, http.StatusOK, fragments...)
}

func (service *FrontendService) renderFragmentsWithStatus(ctx echo.Context, status int, fragments ...fragment) error {
	var b bytes.Buffer
	for _, f := range fragments {
		if err := service.renderer.templates.ExecuteTemplate(&b, f.name, f.data); err != nil {
			slog.Error("renderFragments: failed to render template",
				"status", http.StatusInternalServerError, "template", f.name, "error", err)
			return ctx.String(http.StatusInternalServerError, "Failed to render page")
		}
	}
	return ctx.HTMLBlob(status, b.Bytes())
}

func (service *FrontendService) entryViews() []entryView {
	entries := service.coreService.Entries()
	views := make([]entryView, len(entries))
	for i, entry := range entries {
		views[i] = entryView{Index: i, SavedEntry: entry}
	}
	return views
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

func displayName(entry store.SavedEntry) string {
	if entry.Website != "" {
		return entry.Website
	}
	if entry.PasswordName != "" {
		return entry.PasswordName
	}
	return "unnamed entry"
}
