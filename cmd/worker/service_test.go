package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/angelmondragon/nexus-commerce/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestRunStopsAllConsumersOnFailure(t *testing.T) {
	stopped := make(chan struct{})
	svc, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		Consumers: map[string]runner{
			"broken": runnerFunc(func(context.Context) error { return errors.New("reader closed") }),
			"healthy": runnerFunc(func(ctx context.Context) error {
				defer close(stopped)
				return blockUntilDone(ctx)
			}),
		},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("healthy consumer was not stopped")
	}
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger:    logger.Nop(),
		Consumers: map[string]runner{"notifications": runnerFunc(blockUntilDone)},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestRunFailsFastOnUnreadyDependency(t *testing.T) {
	ran := false
	svc, err := NewService(ServiceParams{
		Logger:       logger.Nop(),
		Dependencies: map[string]pinger{"redis": func(context.Context) error { return errors.New("refused") }},
		Consumers: map[string]runner{"notifications": runnerFunc(func(context.Context) error {
			ran = true
			return nil
		})},
	})
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.False(t, ran)
}
