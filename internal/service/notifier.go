package service

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"changewatch/triggerd/internal/config"
)

// Notifier dispatches one notification. It never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

type execNotifier struct {
	path   string
	logger *zap.Logger
}

// NewExecNotifier returns a Notifier that launches the trigger executable with
// the message as its only argument and does not wait for it. A relative path
// is resolved against the working directory. With DryRun set, launches are
// replaced by a log line.
func NewExecNotifier(cfg config.TriggerConfig, logger *zap.Logger) (Notifier, error) {
	path, err := TriggerPath(cfg)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("trigger", path))
	if cfg.DryRun {
		return &dryRunNotifier{logger: logger}, nil
	}
	return &execNotifier{path: path, logger: logger}, nil
}

// TriggerPath returns the absolute path of the configured trigger executable.
func TriggerPath(cfg config.TriggerConfig) (string, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return "", config.ErrTriggerPath
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return "", fmt.Errorf("resolve trigger path: %w", err)
	}
	return path, nil
}

func (n *execNotifier) Notify(_ context.Context, message string) {
	if err := n.launch(message); err != nil {
		n.logger.Error("trigger launch failed", zap.Error(err))
		return
	}
	n.logger.Debug("trigger launched", zap.String("message", message))
}

// launch starts the trigger detached from the caller. The context is not tied
// to the process so a cancelled check cannot kill an action already started.
func (n *execNotifier) launch(message string) error {
	cmd := exec.Command(n.path, message)
	if err := cmd.Start(); err != nil {
		return &LaunchError{Path: n.path, Err: err}
	}
	// reap the child; its exit status is not our concern
	go func() { _ = cmd.Wait() }()
	return nil
}

type dryRunNotifier struct {
	logger *zap.Logger
}

func (n *dryRunNotifier) Notify(_ context.Context, message string) {
	n.logger.Info("trigger dry run", zap.String("message", message))
}

var (
	_ Notifier = (*execNotifier)(nil)
	_ Notifier = (*dryRunNotifier)(nil)
)
