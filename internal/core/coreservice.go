package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jo-hoe/gopassgen/internal/backend/database"
	"github.com/jo-hoe/gopassgen/internal/generator"
	"github.com/jo-hoe/gopassgen/internal/store"
)

// CoreService holds the generator state shown to the user and owns the
// store of saved entries.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	store           *store.Store
	generator       *generator.Generator

	mu              sync.Mutex
	generatorConfig generator.Config
	password        string
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	source := generator.MathSource()
	if config.Generator.CryptoRandom {
		source = generator.CryptoSource()
	}
	return newCoreService(config, databaseService, generator.NewGenerator(source)), nil
}

func newCoreService(config *ServiceConfig, databaseService database.DatabaseService, gen *generator.Generator) *CoreService {
	entryStore := store.New(databaseService, config.StorageKey)
	entryStore.Load(context.Background())

	service := &CoreService{
		config:          config,
		databaseService: databaseService,
		store:           entryStore,
		generator:       gen,
		generatorConfig: config.Generator.Defaults(),
	}
	service.password = gen.Generate(service.generatorConfig)
	return service
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func (service *CoreService) GeneratorConfig() generator.Config {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.generatorConfig
}

// Password returns the current password, empty right after a save.
func (service *CoreService) Password() string {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.password
}

// UpdateGeneratorConfig stores cfg and recomputes the current password.
func (service *CoreService) UpdateGeneratorConfig(cfg generator.Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	service.mu.Lock()
	defer service.mu.Unlock()

	service.generatorConfig = cfg
	service.password = service.generator.Generate(cfg)
	return service.password, nil
}

// Regenerate recomputes the current password with the current config.
func (service *CoreService) Regenerate() string {
	service.mu.Lock()
	defer service.mu.Unlock()

	service.password = service.generator.Generate(service.generatorConfig)
	return service.password
}

// GeneratePassword returns a one-off password without touching the current one.
func (service *CoreService) GeneratePassword(cfg generator.Config) string {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.generator.Generate(cfg)
}

// SaveEntry stores the current password under website and name, then
// clears the current password.
func (service *CoreService) SaveEntry(ctx context.Context, website, name string) (store.SavedEntry, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	entry := store.SavedEntry{
		Website:      website,
		PasswordName: name,
		Password:     service.password,
	}
	if err := service.store.Save(ctx, entry); err != nil {
		return store.SavedEntry{}, err
	}
	service.password = ""
	slog.Info("saved entry", "website", website, "count", service.store.Len())
	return entry, nil
}

// SaveEntryWithPassword stores entry as given; an empty password is replaced
// by one generated from the current config.
func (service *CoreService) SaveEntryWithPassword(ctx context.Context, entry store.SavedEntry) (store.SavedEntry, error) {
	if entry.Password == "" {
		entry.Password = service.GeneratePassword(service.GeneratorConfig())
	}
	if err := service.store.Save(ctx, entry); err != nil {
		return store.SavedEntry{}, err
	}
	slog.Info("saved entry", "website", entry.Website, "count", service.store.Len())
	return entry, nil
}

func (service *CoreService) DeleteEntry(ctx context.Context, index int) error {
	if err := service.store.Delete(ctx, index); err != nil {
		return err
	}
	slog.Info("deleted entry", "index", index, "count", service.store.Len())
	return nil
}

func (service *CoreService) Entries() []store.SavedEntry {
	return service.store.Entries()
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

func (service *CoreService) Close() error {
	if service.databaseService == nil {
		return nil
	}
	return service.databaseService.Close()
}
