// Package testutil provides filesystem helpers and testify mocks for the
// interfaces of the log-analyzer core library (pkg/analyzer and subpackages).
package testutil

import (
	"context"
	"log/slog"

	"github.com/stackvity/log-analyzer/pkg/analyzer"
	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
	"github.com/stretchr/testify/mock"
)

// MockHooks provides a mock implementation of the analyzer.Hooks interface.
// OnFileDiscovered is called from the walker goroutine; testify's mock is safe
// for that, but any extra state a test records must be synchronized.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status analyzer.Status, message string) error {
	args := m.Called(path, status, message)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(stats *analyzer.RunStatistics) error {
	args := m.Called(stats)
	return args.Error(0)
}

// MockDecoder provides a mock implementation of the encoding.Decoder interface.
type MockDecoder struct {
	mock.Mock
}

// Decode mocks the Decode method.
func (m *MockDecoder) Decode(content []byte) (encoding.Result, error) {
	args := m.Called(content)
	result, _ := args.Get(0).(encoding.Result)
	return result, args.Error(1)
}

// StaticWalker is an analyzer.PathWalker that emits a fixed list of paths.
// Use StaticWalkerFactory to inject it through Options.WalkerFactory.
type StaticWalker struct {
	Paths    []string
	Err      error
	pathChan chan<- string
}

// StaticWalkerFactory returns an analyzer.WalkerFactory producing a StaticWalker.
func StaticWalkerFactory(paths []string, err error) analyzer.WalkerFactory {
	return func(_ *analyzer.Options, pathChan chan<- string, _ slog.Handler) (analyzer.PathWalker, error) {
		return &StaticWalker{Paths: paths, Err: err, pathChan: pathChan}, nil
	}
}

// StartWalk implements analyzer.PathWalker.
func (w *StaticWalker) StartWalk(ctx context.Context) error {
	defer close(w.pathChan)
	for _, p := range w.Paths {
		select {
		case w.pathChan <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return w.Err
}

// MockLoggerHandler provides a mock implementation for slog.Handler.
// Generally, using slog.NewTextHandler with a bytes.Buffer is preferred for testing log output.
type MockLoggerHandler struct {
	mock.Mock
}

// Enabled mocks the Enabled method.
func (m *MockLoggerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	args := m.Called(ctx, level)
	enabled, _ := args.Get(0).(bool)
	return enabled
}

// Handle mocks the Handle method.
func (m *MockLoggerHandler) Handle(ctx context.Context, r slog.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// WithAttrs mocks the WithAttrs method.
func (m *MockLoggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := m.Called(attrs)
	retHandler, ok := args.Get(0).(slog.Handler)
	if !ok || retHandler == nil {
		return m
	}
	return retHandler
}

// WithGroup mocks the WithGroup method.
func (m *MockLoggerHandler) WithGroup(name string) slog.Handler {
	args := m.Called(name)
	retHandler, ok := args.Get(0).(slog.Handler)
	if !ok || retHandler == nil {
		return m
	}
	return retHandler
}
