package cli

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/annoscope/internal/server"
)

const shutdownTimeout = 5 * time.Second

func (a *app) kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the annotation kinds of the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer(cmd).Kinds(svc.Kinds())
		},
	}
}

func (a *app) findCommand() *cobra.Command {
	var repeatable, allEnclosing bool
	cmd := &cobra.Command{
		Use:   "find <selector> <kind>",
		Short: "Find annotations of a kind on the selected element and its enclosing classes",
		Long: `Find annotations of a kind on the selected element and its enclosing classes.

Without --all-enclosing the closest scope declaring the kind wins; with it
every scope contributes, innermost first. --repeatable collects all
instances of a repeatable kind, including those held by its container.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Find(args[0], args[1], repeatable, allEnclosing)
			if err != nil {
				return err
			}
			a.diag.Verbose("%s matched %d annotations", result.Query, len(result.Annotations))
			return a.renderer(cmd).Query(result)
		},
	}
	cmd.Flags().BoolVarP(&repeatable, "repeatable", "r", false, "collect every instance of a repeatable kind")
	cmd.Flags().BoolVarP(&allEnclosing, "all-enclosing", "a", false, "search every enclosing scope instead of the closest")
	return cmd
}

func (a *app) presentCommand() *cobra.Command {
	var repeatable bool
	cmd := &cobra.Command{
		Use:   "present <selector> <kind>",
		Short: "Report whether a kind is present on the selected element or an enclosing class",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Present(args[0], args[1], repeatable)
			if err != nil {
				return err
			}
			return a.renderer(cmd).Presence(result)
		},
	}
	cmd.Flags().BoolVarP(&repeatable, "repeatable", "r", false, "treat the kind as repeatable")
	return cmd
}

func (a *app) metaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <selector> <marker>",
		Short: "List annotations on the selected method or class whose kind carries marker",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Meta(args[0], args[1])
			if err != nil {
				return err
			}
			return a.renderer(cmd).Query(result)
		},
	}
}

func (a *app) sourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources <selector>",
		Short: "List the parameter and method argument sources of the selected method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Sources(args[0])
			if err != nil {
				return err
			}
			return a.renderer(cmd).Sources(result)
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, server.New(svc, server.WithLogger(a.logger)), a.config.Server.Address)
		},
	}
	cmd.Flags().String("address", defaultServerAddress, "listen address")
	bindFlag(a.viper, cmd.Flags(), "address", serverAddressKey)
	return cmd
}

// serve runs srv until ctx is cancelled or the listener fails
func (a *app) serve(ctx context.Context, srv *server.Server, addr string) error {
	a.diag.Info("Serving queries on http://%s", addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	a.diag.Info("Server stopped")
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version := Version
			info, ok := debug.ReadBuildInfo()
			if version == "" && ok {
				version = info.Main.Version
			}
			if version == "" {
				version = "unknown"
			}
			cmd.Println("annoscope version\t", version)
			if ok {
				cmd.Println("go version\t", info.GoVersion)
			}
		},
	}
}
