package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/ports"
)

// settle is the pause between a change event and the re-analysis, letting
// editors finish writing.
var settle = 100 * time.Millisecond

// Watch analyses the contracts named by args, hands the reports to show,
// then repeats every time the loader reports a change. It returns nil when
// ctx is cancelled. Broken contracts are logged and waited out rather than
// ending the loop.
func (a *App) Watch(ctx context.Context, args []string, concurrency int, show func([]*domain.Report) error) error {
	l, err := a.Loader()
	if err != nil {
		return err
	}
	w, ok := l.(ports.Watchable)
	if !ok {
		return fmt.Errorf("contract source does not support watching")
	}

	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	a.Logger.Info("Starting Watcher", "dir", a.dir)

	for {
		if err := a.watchIteration(ctx, args, concurrency, show); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.Logger.Error("Analysis failed, waiting for changes", "err", err)
		}

		select {
		case <-ctx.Done():
			a.Logger.Info("Stopping watcher")
			return nil
		case id, ok := <-events:
			if !ok {
				return nil
			}
			a.Logger.Info("Change detected, re-analysing", "contract", id)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(settle):
		}
		drain(events)
	}
}

func (a *App) watchIteration(ctx context.Context, args []string, concurrency int, show func([]*domain.Report) error) error {
	contracts, err := a.Contracts(ctx, args)
	if err != nil {
		return err
	}
	reports, err := a.Analyze(ctx, contracts, concurrency)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ctx.Err()
		}
		return err
	}
	return show(reports)
}

// drain discards events that piled up while settling.
func drain(events <-chan string) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
