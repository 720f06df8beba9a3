package di

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Sanchous98/go-ioc/store"
)

// Application runs a wired component graph until its context is done.
type Application struct {
	*Manager

	name     string
	config   Configuration
	strategy store.Strategy
}

func NewApplication(name string, cfg Configuration, strategy store.Strategy, opts ...Option) *Application {
	return &Application{Manager: NewManager(opts...), name: name, config: cfg, strategy: strategy}
}

func (a *Application) Name() string { return a.name }

// Run initializes and wires the graph, launches every Launchable component in
// background and, once ctx is done or the process is interrupted, shuts down
// every Stoppable component concurrently. Destructible components are
// destroyed last.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Initialize(a.config, a.strategy); err != nil {
		return fmt.Errorf("%s: %w", a.name, err)
	}

	if _, err := a.WireAll(); err != nil {
		return fmt.Errorf("%s: %w", a.name, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	all := a.Store().Enumerate()

	for _, e := range all {
		if service, ok := e.Instance.(Launchable); ok {
			a.logger.Info().Str("app", a.name).Stringer("component", e.Type).Msg("launching")
			go a.launch(ctx, service)
		}
	}

	<-ctx.Done()
	a.logger.Info().Str("app", a.name).Msg("shutting down")

	// Components get a live context to shut down with.
	shutdownCtx := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(shutdownCtx)

	for _, e := range all {
		if service, ok := e.Instance.(Stoppable); ok {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%s: shutdown of %s panicked: %v", a.name, typeName(e.Type), r)
					}
				}()

				service.Shutdown(gctx)

				return nil
			})
		}
	}

	err := g.Wait()

	for _, e := range all {
		if service, ok := e.Instance.(Destructible); ok {
			service.Destructor()
		}
	}

	return err
}

func (a *Application) launch(ctx context.Context, service Launchable) {
	defer func() {
		if err := recover(); err != nil {
			a.logger.Error().Interface("panic", err).Str("app", a.name).Msg("component panicked, relaunching")

			if ctx.Err() == nil {
				go a.launch(ctx, service)
			}
		}
	}()

	service.Launch(ctx)
}
