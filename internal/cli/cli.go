package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokensync/pkg/buildinfo"
	"github.com/matzehuels/tokensync/pkg/color"
	"github.com/matzehuels/tokensync/pkg/config"
	"github.com/matzehuels/tokensync/pkg/pipeline"
	"github.com/matzehuels/tokensync/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "tokensync"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Persistent flags.
	configPath string
	storePath  string
	profile    string
	noCache    bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "tokensync converts design-token documents to and from a variable store",
		Long: `tokensync reads DTCG-style design-token documents, resolves aliases and
materializes them into a variable store (a JSON file, Redis or MongoDB).
The store can be exported back into a document at any time.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ./tokensync.toml)")
	flags.StringVar(&c.storePath, "store", "", "use a file store at this path")
	flags.StringVar(&c.profile, "profile", "", "store color profile: srgb or display-p3")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the validation cache")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.colorCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the config file and applies flag overrides.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, path, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}

	if c.storePath != "" {
		cfg.Store.Backend = config.BackendFile
		cfg.Store.Path = c.storePath
	}
	if c.profile != "" {
		p, err := color.ParseProfile(c.profile)
		if err != nil {
			return err
		}
		cfg.Store.Profile = p
	}
	if c.noCache {
		cfg.Cache.Disabled = true
	}
	c.cfg = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (as in tests of single commands).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.settings().OpenCache(), c.Logger)
}

// openStore connects to the configured store. The close function is never nil.
func (c *CLI) openStore(ctx context.Context) (store.Store, func() error, error) {
	cfg := c.settings()
	s, closeFn, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, closeFn, err
	}
	c.Logger.Debug("opened store", "backend", cfg.Store.Backend, "profile", cfg.Store.Profile)
	return s, closeFn, nil
}
