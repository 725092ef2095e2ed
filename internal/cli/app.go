// Package cli implements the annoscope command tree.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toyz/annoscope/internal/diagnostics"
	"github.com/toyz/annoscope/internal/errors"
	"github.com/toyz/annoscope/internal/javasrc"
	"github.com/toyz/annoscope/internal/metadata"
	"github.com/toyz/annoscope/internal/query"
	"github.com/toyz/annoscope/internal/report"
	"github.com/toyz/annoscope/internal/search"
	"github.com/toyz/annoscope/internal/yamlmodel"
)

const rootLongDescription = `Annoscope answers annotation presence queries against Java sources or a
YAML model: which annotations of a kind are present on a test method, its
class and the classes enclosing it, following inheritance, interfaces,
meta-annotations and repeatable containers.

Model sources:
  --source ./src/test/java     parse Java sources (repeatable)
  --model model.yaml           load a declarative YAML model

Selectors:
  com.acme.OuterTest                                  a class
  com.acme.OuterTest/com.acme.OuterTest$Inner#runs    a method of a nested class
  OuterTest#runs(int, String)                          an overload`

// Version is set at build time
var Version = ""

// app carries the state shared by all commands of one invocation
type app struct {
	viper      *viper.Viper
	config     Config
	configFile string
	quiet      bool
	diag       *diagnostics.System
	logger     *slog.Logger
}

// NewRootCommand builds the command tree with a fresh configuration
func NewRootCommand() *cobra.Command {
	a := &app{
		viper:  newViper(),
		logger: slog.New(slog.DiscardHandler),
	}
	root := a.rootCommand()
	root.AddCommand(
		a.kindsCommand(),
		a.findCommand(),
		a.presentCommand(),
		a.metaCommand(),
		a.sourcesCommand(),
		a.serveCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	return run(NewRootCommand(), os.Args[1:])
}

func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		level := diagnostics.Error
		if verbose, _ := root.PersistentFlags().GetBool("verbose"); verbose {
			level = diagnostics.Verbose
		}
		newDiagnostics(level, root.ErrOrStderr()).ReportError(err)
		return 1
	}
	return 0
}

// newDiagnostics writes all messages to w; colours only on the real streams
func newDiagnostics(level diagnostics.Level, w io.Writer) *diagnostics.System {
	if w == os.Stdout || w == os.Stderr {
		return diagnostics.NewTerminal(level, w, w)
	}
	return diagnostics.NewWithWriters(level, w, w)
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "annoscope",
		Short:         "Annotation search over Java test sources",
		Long:          rootLongDescription,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./"+configFileName+")")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only show errors and results")

	flags.StringArrayP("source", "s", nil, "Java source root, file or glob (can be repeated)")
	bindFlag(a.viper, flags, "source", sourcePathsKey)
	flags.StringArrayP("exclude", "x", nil, "skip paths matching a doublestar glob (can be repeated)")
	bindFlag(a.viper, flags, "exclude", sourceExcludeKey)
	flags.Int("workers", 0, "files parsed concurrently (default: number of CPUs)")
	bindFlag(a.viper, flags, "workers", sourceWorkersKey)
	flags.StringP("model", "m", "", "YAML model file instead of Java sources")
	bindFlag(a.viper, flags, "model", modelFileKey)
	flags.StringP("format", "f", string(report.FormatTable), "output format: table, yaml or json")
	bindFlag(a.viper, flags, "format", outputFormatKey)
	flags.String("arguments-source", "", "repeatable arguments source kind (default "+search.DefaultArgumentsSourceKind+")")
	bindFlag(a.viper, flags, "arguments-source", argumentsSourceKey)
	flags.String("cartesian-source", "", "cartesian arguments source kind (default "+search.DefaultCartesianArgumentsSourceKind+")")
	bindFlag(a.viper, flags, "cartesian-source", cartesianSourceKey)
	flags.BoolP("verbose", "v", false, "verbose output and debug logging")
	bindFlag(a.viper, flags, "verbose", logVerboseKey)
	flags.String("log-file", "", "log file (default "+defaultLogFilename+")")
	bindFlag(a.viper, flags, "log-file", logFilenameKey)
	return cmd
}

// setup reads the configuration and prepares logging and diagnostics
func (a *app) setup(cmd *cobra.Command) error {
	if err := readConfig(a.viper, a.configFile); err != nil {
		return err
	}
	cfg, err := loadConfig(a.viper)
	if err != nil {
		return err
	}
	a.config = cfg

	level := diagnostics.Info
	switch {
	case a.quiet:
		level = diagnostics.Error
	case cfg.Log.Verbose:
		level = diagnostics.Verbose
	}
	// results go to stdout, progress to stderr
	a.diag = newDiagnostics(level, cmd.ErrOrStderr())

	if cmd.Name() != "version" {
		a.logger = newLogger(cfg.Log)
	}
	a.logger.Debug("configuration loaded", "file", a.viper.ConfigFileUsed(), "command", cmd.Name())
	return nil
}

// loadModel loads the configured YAML model or Java sources; exactly one must
// be configured
func (a *app) loadModel(ctx context.Context) (*metadata.Model, error) {
	cfg := a.config
	switch {
	case cfg.Model.File != "" && len(cfg.Source.Paths) > 0:
		return nil, errors.ConfigurationError("model", "both a YAML model and Java sources are configured").
			WithSuggestion("Pass either --model or --source")
	case cfg.Model.File != "":
		a.diag.Verbose("Loading model %s", cfg.Model.File)
		return yamlmodel.NewLoader(yamlmodel.WithLogger(a.logger)).LoadFile(cfg.Model.File)
	case len(cfg.Source.Paths) > 0:
		a.diag.Verbose("Parsing Java sources in %v", cfg.Source.Paths)
		loader := javasrc.NewLoader(
			javasrc.WithLogger(a.logger),
			javasrc.WithWorkers(cfg.Source.Workers),
			javasrc.WithExcludes(cfg.Source.Exclude...),
			javasrc.WithPlatformKinds(cfg.Source.PlatformKinds),
		)
		return loader.Load(ctx, cfg.Source.Paths...)
	default:
		return nil, errors.ConfigurationError("model", "no model source configured").
			WithSuggestions(
				"Pass --source <dir> to parse Java sources",
				"Pass --model <file.yaml> to load a YAML model",
				"Set source.paths or model.file in "+configFileName,
			)
	}
}

// service loads the model and wraps it in a query service
func (a *app) service(ctx context.Context) (*query.Service, error) {
	model, err := a.loadModel(ctx)
	if err != nil {
		return nil, err
	}
	a.diag.Verbose("Loaded %d types", model.Len())
	a.logger.Info("model loaded", "types", model.Len(), "kinds", len(model.Kinds()))

	engine := search.NewEngine(
		search.WithLogger(a.logger),
		search.WithModelSourceKinds(model, a.config.Search.ArgumentsSource, a.config.Search.CartesianSource),
	)
	return query.NewService(model, engine, a.logger), nil
}

// renderer writes results to the command's standard output
func (a *app) renderer(cmd *cobra.Command) *report.Renderer {
	format, _ := report.ParseFormat(a.config.Output.Format)
	return report.NewRenderer(cmd.OutOrStdout(), format)
}
