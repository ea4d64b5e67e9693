package reminder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/reminder-bot/backend/internal/service/reminder"
)

func discard() reminder.Sink {
	return reminder.SinkFunc(func(string) error { return nil })
}

func TestServiceOpenAndGet(t *testing.T) {
	svc := reminder.NewService()
	ctx := context.Background()

	var greeting string
	session, err := svc.Open(ctx, reminder.SinkFunc(func(text string) error {
		greeting = text
		return nil
	}))
	require.NoError(t, err)
	assert.Contains(t, greeting, "<tt>help</tt>")

	got, err := svc.Get(ctx, session.ID())
	require.NoError(t, err)
	assert.Same(t, session, got)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestServiceOpenRequiresSink(t *testing.T) {
	svc := reminder.NewService()

	_, err := svc.Open(context.Background(), nil)
	assert.ErrorIs(t, err, reminder.ErrSinkRequired)
}

func TestServiceOpenFailsWhenGreetingCannotBeSent(t *testing.T) {
	svc := reminder.NewService()
	boom := errors.New("boom")

	_, err := svc.Open(context.Background(), reminder.SinkFunc(func(string) error { return boom }))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, svc.ActiveSessions())
}

func TestServiceCloseUnknownSession(t *testing.T) {
	svc := reminder.NewService()
	session, err := svc.Open(context.Background(), discard())
	require.NoError(t, err)

	require.NoError(t, svc.Close(session.ID()))
	assert.ErrorIs(t, svc.Close(session.ID()), reminder.ErrSessionNotFound)

	_, err = svc.Get(context.Background(), session.ID())
	assert.ErrorIs(t, err, reminder.ErrSessionNotFound)
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	svc := reminder.NewService()
	ctx := context.Background()

	first, err := svc.Open(ctx, discard())
	require.NoError(t, err)
	second, err := svc.Open(ctx, discard())
	require.NoError(t, err)
	defer svc.Shutdown()

	require.NoError(t, first.Receive("remind me to stretch in 1 hour"))
	require.NoError(t, first.Receive("remind me to drink water in 2 hours"))

	assert.Len(t, first.Pending(), 2)
	assert.Empty(t, second.Pending())
	assert.Equal(t, 1, second.NextID())
}

func TestServiceShutdownClosesEverySession(t *testing.T) {
	svc := reminder.NewService()
	ctx := context.Background()

	session, err := svc.Open(ctx, discard())
	require.NoError(t, err)
	require.NoError(t, session.Receive("remind me to stretch in 1 hour"))

	svc.Shutdown()

	assert.Zero(t, svc.ActiveSessions())
	assert.Empty(t, session.Pending())
}
