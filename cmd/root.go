package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/logger"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var errNoArguments = errors.New("No arguments provided. Use --help for usage information.")

// rootOptions holds the persistent flags and the lazily loaded config shared
// by every subcommand.
type rootOptions struct {
	logLevel   string
	configPath string
	logChanged bool

	cfg *config.Config
}

func (o *rootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// --log wins over the config file
	if !o.logChanged && cfg.Logging.Level != "" {
		level, err := logger.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("config logging.level: %w", err)
		}
		logger.SetLevel(level)
	}

	o.cfg = cfg
	return cfg, nil
}

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "facet",
		Short: "Faceted Prompting CLI",
		Long: `facet - Faceted Prompting CLI

Composes prompts from reusable facets:
  persona                  system prompt
  policy, knowledge        user message, trimmed and annotated with their source
  instruction              user message
  additional-instruction   user message, appended in order

Facets live under <root>/<kind dir>/<name>.md for every configured root, and
optionally in a SQLite store.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errNoArguments
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logger.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			opts.logChanged = cmd.Flags().Changed("log")
			return nil
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, fatal, panic")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Config file (default: .facet.yaml next to the executable)")

	cmd.AddCommand(
		newComposeCommand(opts),
		newListCommand(opts),
		newResolveCommand(opts),
		newRenderCommand(),
		newImportCommand(opts),
		newInitCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// flagError rewrites pflag's unknown-flag errors into the CLI's own wording.
func flagError(cmd *cobra.Command, err error) error {
	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, "unknown flag: "); ok {
		return fmt.Errorf("Unknown flag '%s'. Use --help for usage information.", name)
	}
	if strings.HasPrefix(msg, "unknown shorthand flag: ") {
		if i := strings.LastIndex(msg, " in "); i >= 0 {
			return fmt.Errorf("Unknown flag '%s'. Use --help for usage information.", msg[i+len(" in "):])
		}
	}
	return err
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
