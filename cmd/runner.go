package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/local2stream/internal/library"
	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/repositories"
	"github.com/desertthunder/local2stream/internal/services"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/desertthunder/local2stream/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog // built from Config on first use when nil
	DB         *sql.DB          // opened from Config on first use when nil
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, scanCommand, transferCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig is the root Before hook: it reads the --config file when present and applies the log level.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.configPath = path
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	level := r.config.Logging.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if file := r.config.Logging.File; file != "" {
		fileLogger, err := shared.NewFileLogger(file)
		if err != nil {
			return ctx, err
		}
		shared.SetLogLevel(fileLogger, shared.ParseLogLevel(level))
		r.SetLogger(fileLogger)
	}
	return ctx, nil
}

// close releases the database opened by [Runner.database], if any.
func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// openCatalog returns the configured catalog, building it on first use.
func (r *Runner) openCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}
	catalog, err := services.NewCatalog(ctx, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	r.catalog = catalog
	return catalog, nil
}

// database returns a migrated connection to the configured history database.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) scanner() *library.Scanner {
	return library.NewScanner(r.config.Library.Extensions, r.logger)
}

// newEngine builds a transfer engine from config; dryRun forces a dry run on top of the configured value.
func (r *Runner) newEngine(catalog services.Catalog, dryRun bool) *tasks.TransferEngine {
	opts := tasks.NewOptions(r.config, r.logger)
	opts.DryRun = opts.DryRun || dryRun
	return tasks.NewTransferEngine(catalog, opts)
}

// saveSummary records a finished run and its per-track results in the history database.
func (r *Runner) saveSummary(s *tasks.Summary, libraryPath string) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	repo := repositories.NewJobRepository(db)
	if err := repo.Create(s.Record(libraryPath)); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	records := make([]models.TrackRecord, len(s.Results))
	for i, result := range s.Results {
		records[i] = models.NewTrackRecord(s.JobID, result)
	}
	if err := repo.SaveTracks(s.JobID, records); err != nil {
		return fmt.Errorf("failed to save tracks: %w", err)
	}

	r.logger.Debug("saved transfer history", "job", s.JobID, "tracks", len(records))
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
