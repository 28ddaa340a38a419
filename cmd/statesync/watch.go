package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RuiFG/statesync/common/safe"
	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/metrics"
	"github.com/RuiFG/statesync/persist"
	"github.com/RuiFG/statesync/source/file"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/tracing"
	"github.com/RuiFG/statesync/value"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

func (c *cli) watchCommand() *cobra.Command {
	var path, profileDir string
	command := &cobra.Command{
		Use:   "watch",
		Short: "hydrate a json state file from the store and persist every change to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if profileDir != "" {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(profileDir), profile.Quiet, profile.NoShutdownHook).Stop()
			}
			shutdown, err := tracing.Setup(ctx, c.application.TracingOptions())
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Named("watch").Warnw("failed to flush spans", "err", err)
				}
			}()
			return c.watch(ctx, path)
		},
	}
	command.Flags().StringVarP(&path, "file", "f", "state.json", "json state file to synchronize")
	command.Flags().StringVar(&profileDir, "profile", "", "write a cpu profile into this directory")
	return command
}

func (c *cli) watch(ctx context.Context, path string) error {
	logger := log.Named("watch")
	m := metrics.New(metrics.Options{Prefix: "statesync", ReportInterval: c.application.Metrics.ReportInterval})
	defer func() { _ = m.Close() }()

	st, err := c.application.OpenStore(log.Named("store"), m.Scope)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	options, err := c.application.PersistOptions(log.Global(), m.Scope)
	if err != nil {
		return err
	}
	watcher, err := file.New(path, file.WithLogger(log.Named("file")))
	if err != nil {
		return err
	}

	container := state.New(nil, state.WithLogger(log.Named("state")))
	subscription := persist.LoadThenPersist(ctx, st, container, options...)
	select {
	case <-subscription.Loaded():
	case <-subscription.Done():
		return subscription.Err()
	}
	if watcher.Exists() {
		s, err := watcher.Read()
		if err != nil {
			subscription.Cancel()
			return err
		}
		container.Update(state.Replace(s))
	} else if err := watcher.Write(container.Value()); err != nil {
		subscription.Cancel()
		return errors.WithMessage(err, "failed to write hydrated state")
	}
	logger.Infow("state hydrated", "subscription", subscription.ID(), "file", watcher.Path(), "keys", len(container.Value()))

	if listen := c.application.Metrics.Listen; listen != "" {
		server := &http.Server{Addr: listen, Handler: newRouter(m, container, logger), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw("http server stopped", "err", err)
			}
		}()
		defer func() { _ = server.Shutdown(context.Background()) }()
		logger.Infof("serving %s/metrics and %s/state", listen, listen)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	watched := safe.Go(func() error {
		return watcher.Watch(watchCtx, func(s state.State) {
			container.Update(state.Replace(s))
		})
	})

	select {
	case <-ctx.Done():
		logger.Infow("shutting down")
	case <-subscription.Done():
	case err := <-watched:
		if err != nil {
			subscription.Cancel()
			_ = subscription.Wait(context.Background())
			return err
		}
	}
	subscription.Cancel()
	cancelWatch()
	return subscription.Wait(context.Background())
}

// newRouter serves the prometheus metrics, the whole state and single keys.
func newRouter(m *metrics.Metrics, container *state.Container, logger log.Logger) http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", m.Handler).Methods(http.MethodGet)
	router.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		writeValue(w, value.Object(container.Value()), logger)
	}).Methods(http.MethodGet)
	router.HandleFunc("/state/{key}", func(w http.ResponseWriter, r *http.Request) {
		v, ok := container.Get(mux.Vars(r)["key"])
		if !ok {
			http.Error(w, "no such key", http.StatusNotFound)
			return
		}
		writeValue(w, v, logger)
	}).Methods(http.MethodGet)
	return router
}

func writeValue(w http.ResponseWriter, v value.Value, logger log.Logger) {
	data, err := value.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logger.Debugw("failed to write response", "err", err)
	}
}
