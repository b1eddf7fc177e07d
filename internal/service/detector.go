package service

import (
	"context"
	"fmt"

	"github.com/im7mortal/kmutex"
	"go.uber.org/zap"

	"changewatch/triggerd/internal/model"
	"changewatch/triggerd/internal/repository"
)

// ChangeDetector compares fresh samples with the stored value of a key,
// advances the stored value and dispatches notifications for accepted
// transitions.
type ChangeDetector interface {
	// ObserveIndicator handles a binary reading. Every change is stored, only
	// the 0->1 edge notifies with message.
	ObserveIndicator(ctx context.Context, key string, value model.Indicator, message string) (model.Transition, error)
	// ObserveFeed handles samples delivered newest first. Samples newer than
	// the stored value notify in ascending timestamp order.
	ObserveFeed(ctx context.Context, key string, samples []model.Sample) ([]model.Transition, error)
}

type changeDetector struct {
	store    repository.StateStore
	notifier Notifier
	locks    *kmutex.Kmutex
	logger   *zap.Logger
}

func NewChangeDetector(store repository.StateStore, notifier Notifier, logger *zap.Logger) ChangeDetector {
	return &changeDetector{
		store:    store,
		notifier: notifier,
		locks:    kmutex.New(),
		logger:   logger,
	}
}

// lock serializes every read-compare-write sequence on key.
func (d *changeDetector) lock(key string) func() {
	d.locks.Lock(key)
	return func() { d.locks.Unlock(key) }
}

func (d *changeDetector) ObserveIndicator(ctx context.Context, key string, value model.Indicator, message string) (model.Transition, error) {
	unlock := d.lock(key)
	defer unlock()

	current := float64(value)
	t := model.Transition{Key: key, Current: current}

	previous, ok, err := d.store.Get(ctx, key)
	if err != nil {
		return t, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		if err := d.store.Set(ctx, key, current); err != nil {
			return t, fmt.Errorf("set baseline %s: %w", key, err)
		}
		t.Baseline = true
		d.logger.Debug("baseline stored", zap.String("key", key), zap.Stringer("value", value))
		return t, nil
	}

	t.Previous = previous
	if previous == current {
		return t, nil
	}
	if err := d.store.Set(ctx, key, current); err != nil {
		return t, fmt.Errorf("set %s: %w", key, err)
	}
	d.logger.Info("stock changed",
		zap.String("key", key),
		zap.Stringer("from", model.Indicator(previous)),
		zap.Stringer("to", value),
	)

	if value == model.InStock {
		t.Notify = true
		d.logger.Debug("triggering", zap.String("key", key), zap.String("message", message))
		d.notifier.Notify(ctx, message)
	}
	return t, nil
}

func (d *changeDetector) ObserveFeed(ctx context.Context, key string, samples []model.Sample) ([]model.Transition, error) {
	unlock := d.lock(key)
	defer unlock()

	last, ok, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if !ok {
		if len(samples) == 0 {
			return nil, fmt.Errorf("%s: %w", key, ErrBaselineMissing)
		}
		// the existing backlog counts as seen
		baseline := samples[0].Timestamp
		if err := d.store.Set(ctx, key, baseline); err != nil {
			return nil, fmt.Errorf("set baseline %s: %w", key, err)
		}
		d.logger.Debug("baseline stored", zap.String("key", key), zap.Float64("value", baseline))
		return []model.Transition{{Key: key, Current: baseline, Baseline: true}}, nil
	}

	var transitions []model.Transition
	for i := len(samples) - 1; i >= 0; i-- {
		s := samples[i]
		if s.Timestamp <= last {
			continue
		}
		if err := d.store.Set(ctx, key, s.Timestamp); err != nil {
			return transitions, fmt.Errorf("set %s: %w", key, err)
		}
		transitions = append(transitions, model.Transition{
			Key:      key,
			Previous: last,
			Current:  s.Timestamp,
			Notify:   true,
		})
		last = s.Timestamp

		d.logger.Debug("triggering", zap.String("key", key), zap.String("message", s.Message))
		d.notifier.Notify(ctx, s.Message)
	}
	return transitions, nil
}

var _ ChangeDetector = (*changeDetector)(nil)
