package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/kayz/facet/internal/config"
	"github.com/kayz/facet/internal/engine"
	"github.com/kayz/facet/internal/facet"
	"github.com/kayz/facet/internal/logger"
	"github.com/kayz/facet/internal/promptbuild"
	"github.com/kayz/facet/internal/render"
	"github.com/kayz/facet/internal/tokens"
	"github.com/kayz/facet/internal/watch"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type composeOptions struct {
	recipePath  string
	persona     string
	policies    []string
	knowledge   []string
	instruction string
	extras      []string
	vars        []string
	maxChars    int

	asJSON bool
	stats  bool
	watch  bool
	pretty bool
	// prettySet records an explicit --pretty, which overrides TTY detection.
	prettySet bool
}

func newComposeCommand(root *rootOptions) *cobra.Command {
	o := &composeOptions{}

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a prompt from facets or a recipe",
		Long: `Compose a system prompt and user message.

Facet refs may be facet names (looked up in the configured roots and store),
resource paths (./x.md, ../x.md, /abs/x.md, x.md) or inline text.

Examples:
  facet compose --persona coder --policy coding --instruction implement
  facet compose --recipe review.yaml --var strict=true --stats
  facet compose --recipe review.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			o.prettySet = cmd.Flags().Changed("pretty")
			recipe, err := o.buildRecipe(cmd, cfg)
			if err != nil {
				return err
			}

			// without roots or a store, refs resolve as paths or inline text
			var eng engine.DataEngine
			composite, release, err := openEngine(cmd.Context(), cfg)
			switch {
			case errors.Is(err, engine.ErrNoEngines):
				logger.Debug("No facet engines configured, bare names resolve as inline text")
			case err != nil:
				return err
			default:
				eng = composite
				defer release()
			}

			builder := promptbuild.NewBuilder(cfg, eng)
			if err := o.composeOnce(cmd, builder, recipe); err != nil {
				return err
			}
			if !o.watch {
				return nil
			}
			return o.watchAndCompose(cmd, cfg, builder, recipe)
		},
	}

	cmd.Flags().StringVar(&o.recipePath, "recipe", "", "Recipe YAML file")
	cmd.Flags().StringVar(&o.persona, "persona", "", "Persona ref (system prompt)")
	cmd.Flags().StringArrayVar(&o.policies, "policy", nil, "Policy ref (repeatable)")
	cmd.Flags().StringArrayVar(&o.knowledge, "knowledge", nil, "Knowledge ref (repeatable)")
	cmd.Flags().StringVar(&o.instruction, "instruction", "", "Instruction ref")
	cmd.Flags().StringArrayVar(&o.extras, "extra", nil, "Additional instruction ref (repeatable)")
	cmd.Flags().StringArrayVar(&o.vars, "var", nil, "Template variable key=value (repeatable)")
	cmd.Flags().IntVar(&o.maxChars, "max-chars", facet.DefaultContextMaxChars, "Character limit for policy and knowledge blocks")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "Render output as JSON")
	cmd.Flags().BoolVar(&o.stats, "stats", false, "Print character and token counts")
	cmd.Flags().BoolVar(&o.watch, "watch", false, "Recompose when facet or recipe files change")
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "Render markdown for the terminal (default: on when stdout is a terminal)")
	return cmd
}

// buildRecipe loads --recipe when given and overlays the facet flags on it;
// otherwise the flags alone form an ad-hoc recipe.
func (o *composeOptions) buildRecipe(cmd *cobra.Command, cfg *config.Config) (*promptbuild.Recipe, error) {
	vars, err := render.ParseVars(o.vars)
	if err != nil {
		return nil, err
	}

	var maxChars *int
	if cmd.Flags().Changed("max-chars") {
		if o.maxChars < 0 {
			return nil, fmt.Errorf("--max-chars must not be negative")
		}
		n := o.maxChars
		maxChars = &n
	}

	if o.recipePath == "" {
		baseDir, err := filepath.Abs(cfg.Facets.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("resolve base dir: %w", err)
		}
		return promptbuild.BuildRequest{
			Persona:                o.persona,
			Policies:               o.policies,
			Knowledge:              o.knowledge,
			Instruction:            o.instruction,
			AdditionalInstructions: o.extras,
			Variables:              vars,
			ContextMaxChars:        maxChars,
			BaseDir:                baseDir,
		}.Recipe(), nil
	}

	recipe, err := promptbuild.LoadRecipe(o.recipePath)
	if err != nil {
		return nil, err
	}
	if o.persona != "" {
		recipe.Persona = o.persona
	}
	if o.instruction != "" {
		recipe.Instruction = o.instruction
	}
	recipe.Policies = append(recipe.Policies, o.policies...)
	recipe.Knowledge = append(recipe.Knowledge, o.knowledge...)
	recipe.AdditionalInstructions = append(recipe.AdditionalInstructions, o.extras...)
	if len(vars) > 0 {
		if recipe.Variables == nil {
			recipe.Variables = make(map[string]any, len(vars))
		}
		for k, v := range vars {
			recipe.Variables[k] = v
		}
	}
	if maxChars != nil {
		recipe.ContextMaxChars = maxChars
	}
	return recipe, nil
}

func (o *composeOptions) composeOnce(cmd *cobra.Command, builder *promptbuild.Builder, recipe *promptbuild.Recipe) error {
	res, err := builder.Build(cmd.Context(), recipe)
	if err != nil {
		return err
	}
	return o.write(cmd.OutOrStdout(), res)
}

func (o *composeOptions) watchAndCompose(cmd *cobra.Command, cfg *config.Config, builder *promptbuild.Builder, recipe *promptbuild.Recipe) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dirs := append([]string{}, cfg.Facets.Roots...)
	if recipe.BaseDir != "" {
		dirs = append(dirs, recipe.BaseDir)
	}
	w, err := watch.New(dirs, watch.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	logger.Info("Watching %s for changes (Ctrl+C to stop)", strings.Join(dirs, ", "))

	return w.Run(ctx, func(paths []string) {
		logger.Info("Changed: %s", strings.Join(paths, ", "))
		o.recompose(ctx, cmd, cfg, builder, recipe)
	})
}

// recompose runs a fresh build after a change. Failures are logged so the
// watch loop keeps going.
func (o *composeOptions) recompose(ctx context.Context, cmd *cobra.Command, cfg *config.Config, builder *promptbuild.Builder, recipe *promptbuild.Recipe) {
	if o.recipePath != "" {
		fresh, err := o.buildRecipe(cmd, cfg)
		if err != nil {
			logger.Error("Reload recipe: %v", err)
			return
		}
		recipe = fresh
	}
	res, err := builder.Build(ctx, recipe)
	if err != nil {
		logger.Error("Compose failed: %v", err)
		return
	}
	if err := o.write(cmd.OutOrStdout(), res); err != nil {
		logger.Error("Write output: %v", err)
	}
}

type composeOutput struct {
	*promptbuild.Result
	Stats *tokens.Stats `json:"stats,omitempty"`
}

func (o *composeOptions) write(out io.Writer, res *promptbuild.Result) error {
	var stats *tokens.Stats
	if o.stats {
		s := tokens.Measure(res.Prompt.SystemPrompt, res.Prompt.UserMessage)
		stats = &s
	}

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(composeOutput{Result: res, Stats: stats})
	}

	text := formatPrompt(res.Prompt)
	if o.usePretty(out) {
		if rendered, err := renderMarkdown(text); err != nil {
			logger.Warn("Pretty rendering failed, printing plain text: %v", err)
		} else {
			text = rendered
		}
	}
	if _, err := fmt.Fprintln(out, text); err != nil {
		return err
	}
	if stats != nil {
		_, err := fmt.Fprintln(out, formatStats(*stats))
		return err
	}
	return nil
}

func (o *composeOptions) usePretty(out io.Writer) bool {
	if o.prettySet {
		return o.pretty
	}
	f, ok := out.(*os.File)
	return ok && f == os.Stdout && isatty.IsTerminal(f.Fd())
}

func formatPrompt(p facet.ComposedPrompt) string {
	var b strings.Builder
	b.WriteString("## System Prompt\n\n")
	b.WriteString(p.SystemPrompt)
	b.WriteString("\n\n## User Message\n\n")
	b.WriteString(p.UserMessage)
	return b.String()
}

func formatStats(s tokens.Stats) string {
	return fmt.Sprintf("system: %d chars, ~%d tokens\nuser:   %d chars, ~%d tokens\ntotal:  ~%d tokens",
		s.SystemChars, s.SystemTokens, s.UserChars, s.UserTokens, s.Total())
}

func renderMarkdown(text string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}
