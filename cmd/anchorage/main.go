// Command anchorage serves and drives the annotation anchoring engine.
//
//	anchorage serve --config anchorage.yaml
//	anchorage create request.json
//	anchorage resolve ann_... --html snapshot.html
//	anchorage inject page.html > prepared.html
//	anchorage pdf-dims doc.pdf
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/anchorage/browser"
	"github.com/hazyhaar/anchorage/config"
	"github.com/hazyhaar/anchorage/geom"
	"github.com/hazyhaar/anchorage/service"
	"github.com/hazyhaar/anchorage/store"
)

var Version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "anchorage",
		Short:         "Annotation anchoring and coordinate mapping",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(injectCmd())
	rootCmd.AddCommand(pdfDimsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the process logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return nil, nil, err
		}
	}
	lvl := cfg.SlogLevel()
	if logLevel != "" {
		lvl = config.ParseLevel(logLevel)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// app is the wired service and what must be closed with it.
type app struct {
	svc   *service.Service
	store *store.Store
	mgr   *browser.Manager
}

func (a *app) Close() {
	if a.mgr != nil {
		a.mgr.Close()
	}
	a.store.Close()
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(cfg.Store.Path, store.WithBusyTimeout(cfg.Store.BusyTimeout))
	if err != nil {
		return nil, err
	}
	mgr := browser.NewManager(browser.Config{
		RemoteURL:         cfg.Browser.Remote,
		Stealth:           cfg.Browser.Stealth != "none",
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		ResourceBlocking:  cfg.Browser.ResourceBlocking,
		Logger:            logger,
	})
	svc := service.New(service.Config{
		Store:            st,
		Schedule:         cfg.Schedule(),
		FrameInterval:    cfg.Resolver.FrameInterval,
		Layout:           cfg.Placement.Layout,
		Callout:          geom.Size{Width: cfg.Placement.CalloutWidth, Height: cfg.Placement.CalloutHeight},
		Threshold:        cfg.Placement.Threshold,
		Browser:          mgr,
		AllowPrivateURLs: cfg.Browser.AllowPrivate,
		Logger:           logger,
	})
	return &app{svc: svc, store: st, mgr: mgr}, nil
}
