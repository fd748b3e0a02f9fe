package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByType(t *testing.T) {
	dispatcher := NewDispatcher()
	var seen []string
	dispatcher.Register(TypeProcessItem, HandlerFunc(func(_ context.Context, job Job) error {
		seen = append(seen, job.MessageID)
		return nil
	}))

	handled, err := dispatcher.Dispatch(context.Background(), Job{Type: TypeProcessItem, MessageID: "m-1"})
	require.NoError(t, err)
	require.True(t, handled)
	require.Equal(t, []string{"m-1"}, seen)
	require.Equal(t, []string{TypeProcessItem}, dispatcher.Types())
}

func TestDispatcherUnknownTypeIsNotHandled(t *testing.T) {
	handled, err := NewDispatcher().Dispatch(context.Background(), Job{Type: "send_email"})
	require.NoError(t, err)
	require.False(t, handled)
}

func TestDispatcherPropagatesHandlerError(t *testing.T) {
	dispatcher := NewDispatcher()
	boom := errors.New("database locked")
	dispatcher.Register("flaky", HandlerFunc(func(context.Context, Job) error { return boom }))

	handled, err := dispatcher.Dispatch(context.Background(), Job{Type: "flaky"})
	require.True(t, handled)
	require.ErrorIs(t, err, boom)
}

func TestDispatcherRejectsInvalidRegistration(t *testing.T) {
	require.Panics(t, func() { NewDispatcher().Register("", nil) })
}
