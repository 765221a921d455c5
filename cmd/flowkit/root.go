package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rendis/flowkit/internal/logging"
	"github.com/rendis/flowkit/internal/store"
	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

// app carries the state shared by every subcommand. It is populated by the
// root command's PersistentPreRunE.
type app struct {
	cfgFile  string
	cfg      *Config
	logger   *slog.Logger
	pipeline *validation.Pipeline
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "flowkit",
		Short:         "Analyze, generate and render workflow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ~/.flowkit/settings.{json,yaml})")

	root.AddCommand(
		newParseCmd(a),
		newGenerateCmd(a),
		newValidateCmd(a),
		newSuggestCmd(a),
		newLayoutCmd(a),
		newRenderCmd(a),
		newImportMermaidCmd(a),
		newQueryCmd(a),
		newDiagramsCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel)

	rules, err := validation.NewRuleSet(cfg.Rules)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	a.pipeline, err = validation.NewPipeline(rules)
	if err != nil {
		return err
	}
	a.logger.Debug("config loaded", "db_path", cfg.DBPath, "rules", rules.Len())
	return nil
}

// openStore opens the configured diagram database and applies migrations.
func (a *app) openStore(ctx context.Context) (*store.LibSQLStore, error) {
	path := a.cfg.DBPath
	if !strings.Contains(path, ":") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	s, err := store.NewLibSQLStore(dbURI(path), store.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// loadGraph reads a graph file with the app's document validator.
func (a *app) loadGraph(path string) (schema.Graph, error) {
	return loadGraph(a.pipeline.Documents(), path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// inputText joins args, or reads stdin when the only arg is "-".
func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}
