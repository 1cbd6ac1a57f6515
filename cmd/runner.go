package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/epheterson/mcp-applemusic/internal/auth"
	"github.com/epheterson/mcp-applemusic/internal/repositories"
	"github.com/epheterson/mcp-applemusic/internal/resolve"
	"github.com/epheterson/mcp-applemusic/internal/services"
	"github.com/epheterson/mcp-applemusic/internal/shared"
	"github.com/epheterson/mcp-applemusic/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       *auth.Manager
	catalog    *services.CatalogService
	automation *services.AutomationService
	api        *services.APIService
	resolver   *resolve.Resolver
	engine     *tasks.Engine
	tracks     *repositories.TrackCacheRepository
	albums     *repositories.AlbumCacheRepository
	audit      *tasks.AuditLog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       *auth.Manager
	Catalog    *services.CatalogService
	Automation *services.AutomationService
	API        *services.APIService
	Resolver   *resolve.Resolver
	Engine     *tasks.Engine
	Tracks     *repositories.TrackCacheRepository
	Albums     *repositories.AlbumCacheRepository
	Audit      *tasks.AuditLog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		auth:       opts.Auth,
		catalog:    opts.Catalog,
		automation: opts.Automation,
		api:        opts.API,
		resolver:   opts.Resolver,
		engine:     opts.Engine,
		tracks:     opts.Tracks,
		albums:     opts.Albums,
		audit:      opts.Audit,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, resolveCommand, searchCommand, playlistCommand, playCommand, cacheCommand, auditCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth guards commands that need credentials to mint tokens.
func (r *Runner) requireAuth() error {
	if r.auth == nil {
		return fmt.Errorf("%w: no credentials configured, run `setup` first", shared.ErrNotAuthenticated)
	}
	return nil
}

// requireCatalog guards commands that need the Apple Music API client.
func (r *Runner) requireCatalog() error {
	if r.catalog == nil {
		return fmt.Errorf("%w: Apple Music API client not configured", shared.ErrStoreUnavailable)
	}
	return nil
}

// requireAutomation guards commands that can only act through Music.app scripting.
func (r *Runner) requireAutomation() error {
	if r.automation == nil {
		return shared.ErrNoAutomation
	}
	return nil
}

// requireResolver guards commands that resolve loose references.
func (r *Runner) requireResolver() error {
	if r.resolver == nil {
		return fmt.Errorf("%w: no store available to resolve against", shared.ErrStoreUnavailable)
	}
	return nil
}

// requireEngine guards the mutating playlist operations.
func (r *Runner) requireEngine() error {
	if r.engine == nil {
		return fmt.Errorf("%w: playlist engine not configured", shared.ErrStoreUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
