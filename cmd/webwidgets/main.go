// Command webwidgets serves a page of live widgets described by a site
// file.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuebitt/webwidgets/internal/site"
	"github.com/cuebitt/webwidgets/pkg/health"
	"github.com/cuebitt/webwidgets/pkg/logging"
	"github.com/cuebitt/webwidgets/pkg/router"
	"github.com/cuebitt/webwidgets/pkg/shutdown"
	"github.com/cuebitt/webwidgets/pkg/statusapi"
	"github.com/cuebitt/webwidgets/pkg/widgets"
)

var version = "0.1.0"

var (
	sitePath   string
	listenAddr string
)

// maxHeap is the heap size above which /healthz reports degraded.
const maxHeap = 512 << 20

var rootCmd = &cobra.Command{
	Use:           "webwidgets",
	Short:         "Server-driven decorative web widgets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site page and the live widget socket",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the prerendered site page",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "webwidgets v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sitePath, "site", "s", "site.yaml", "Site description file")
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "Listen address (overrides the site file)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSite() (*site.Site, error) {
	s, err := site.Load(sitePath)
	if err != nil {
		return nil, err
	}
	if listenAddr != "" {
		s.Server.Address = listenAddr
	}
	return s, nil
}

// newRouter wires the status client, the element registry and the health
// checks into a router for s.
func newRouter(s *site.Site, logger logging.Logger) (*router.Router, error) {
	status := s.StatusClient(logger)

	reg, err := widgets.NewRegistry(widgets.Deps{Status: status, IntervalUnit: s.Status.IntervalUnit})
	if err != nil {
		return nil, err
	}

	hc := health.DefaultChecker(version)
	hc.AddCheck("status-api", health.UpstreamCheck(status.Ping), 3*time.Second)
	hc.AddCheck("status-circuit", func(ctx context.Context) error {
		if status.Breaker().State() == statusapi.StateOpen {
			return statusapi.ErrCircuitOpen
		}
		return nil
	}, time.Second)
	hc.AddCheck("memory", health.MemoryCheck(maxHeap), time.Second)

	return router.New(reg,
		router.WithConfig(s.Config()),
		router.WithLogger(logger),
		router.WithPage(s.Page()),
		router.WithHealth(hc),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := loadSite()
	if err != nil {
		return err
	}
	logger := s.Logger(cmd.ErrOrStderr())
	logging.SetDefault(logger)

	r, err := newRouter(s, logger)
	if err != nil {
		return err
	}

	cfg := s.Config()
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sd := shutdown.NewHandler(&shutdown.Config{
		Timeout: cfg.Timeouts.GracefulShutdown,
		Logger:  logger,
	})
	// Idle keep-alive connections may hold the HTTP hook; leave the sessions
	// hook at least half of the budget.
	sd.Register(shutdown.TimeoutHook(shutdown.HTTPServerHook("http", srv.Shutdown), cfg.Timeouts.GracefulShutdown/2))
	sd.Register(shutdown.SessionsHook("sessions", r.Shutdown))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving widgets",
			logging.String("address", cfg.Address),
			logging.String("codec", cfg.Codec),
			logging.Int("widgets", len(s.Widgets)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			_ = sd.Shutdown()
		}
	}()

	if err := sd.Wait(); err != nil {
		return err
	}
	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := loadSite()
	if err != nil {
		return err
	}

	r, err := newRouter(s, logging.NopLogger{})
	if err != nil {
		return err
	}
	defer r.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(cmd.Context(), s.Config().Timeouts.ElementConnect)
	defer cancel()

	_, err = fmt.Fprintln(cmd.OutOrStdout(), r.RenderPage(ctx))
	return err
}
