package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-sync/internal/api"
	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/eventbus"
	"github.com/rxtech-lab/argo-sync/internal/logger"
	"github.com/rxtech-lab/argo-sync/internal/push"
	"github.com/rxtech-lab/argo-sync/internal/realtime"
	"github.com/rxtech-lab/argo-sync/internal/session"
	"github.com/rxtech-lab/argo-sync/internal/types"
	"github.com/rxtech-lab/argo-sync/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// loadConfig builds the configuration from the file and flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var cfg *config.Config

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	} else {
		if cmd.String("base-url") == "" {
			return nil, errors.New(errors.ErrCodeMissingParameter, "either --config or --base-url is required")
		}

		defaults := config.Default(cmd.String("base-url"))
		cfg = &defaults
	}

	if baseURL := cmd.String("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if token := cmd.String("token"); token != "" {
		cfg.AuthToken = token
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newWatchLogger(cmd *cli.Command, level string) (*logger.Logger, error) {
	path := cmd.String("log-file")
	if path == "" {
		return logger.NewNopLogger(), nil
	}

	return logger.NewFileLogger(path, level)
}

func serveMetrics(addr string, registry *prometheus.Registry, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})) //nolint:exhaustruct

	server := &http.Server{ //nolint:exhaustruct
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return server
}

// watchAction checks the session, mounts the sync client and renders the dashboard
// until the user quits or the session is rejected.
func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newWatchLogger(cmd, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	backend := api.NewClient(cfg, log)

	sess, err := session.NewGate(backend, log).Check(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeUnauthorized) {
			fmt.Fprintln(cmd.Root().Writer, BlockingStyle.Render("Session expired. Please log in again."))
		}

		return err
	}

	pushCfg, err := push.ConfigFromSync(cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	if addr := cmd.String("metrics-addr"); addr != "" {
		server := serveMetrics(addr, registry, log)
		defer server.Close()
	}

	markers := session.NewMarkers()
	topics := eventbus.NewTopics()

	var program *tea.Program

	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	onView := realtime.OnViewUpdateCallback(func(view types.ViewState) { send(ViewMsg{View: view}) })
	onNotification := realtime.OnNotificationCallback(func(n types.Notification) { send(NotificationMsg{Notification: n}) })
	onUnauthorized := realtime.OnUnauthorizedCallback(func(reason string) { send(UnauthorizedMsg{Reason: reason}) })

	client, err := realtime.NewSyncClient(cfg, backend, push.NewClient(pushCfg, log),
		realtime.Callbacks{
			OnViewUpdate:       &onView,
			OnNotification:     &onNotification,
			OnUnauthorized:     &onUnauthorized,
			OnConnectionChange: nil,
		},
		realtime.WithLogger(log),
		realtime.WithRegisterer(registry),
		realtime.WithTopics(topics),
	)
	if err != nil {
		return err
	}

	// The tables refresh themselves whenever a new deployment snapshot lands.
	unsubscribe := topics.DeploymentChanged.Subscribe(func(status types.DeploymentStatus) {
		send(DeploymentChangedMsg{Status: status})
	})
	defer unsubscribe()

	model := NewModel(client.View(), sess.User).
		WithNotices(sess.Notices).
		WithDisclosure(markers.ShowOnce(session.MarkerRiskDisclosure)).
		WithRefresh(func() {
			topics.RefreshRequested.Publish(eventbus.RefreshRequest{Reason: "user", RequestedAt: time.Now()})
		})

	program = tea.NewProgram(model, tea.WithContext(ctx))

	if err := client.Start(ctx); err != nil {
		return err
	}

	final, runErr := program.Run()

	// Unmount: stop timers and the push channel before leaving.
	if err := client.Close(); err != nil {
		log.Warn("failed to close sync client", zap.Error(err))
	}

	if runErr != nil {
		return runErr
	}

	if m, ok := final.(Model); ok && m.Unauthorized() != "" {
		markers.Reset()

		return errors.New(errors.ErrCodeUnauthorized, m.Unauthorized())
	}

	return nil
}
