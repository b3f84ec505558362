package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLight() *Machine[string, string] {
	m := NewMachine[string, string]("RED")
	m.AddTransition("RED", "GO", "GREEN").
		AddTransition("GREEN", "SLOW", "YELLOW").
		AddTransition("YELLOW", "STOP", "RED")
	return m
}

func TestMachine_Trigger(t *testing.T) {
	m := newLight()
	var seen []string
	m.OnTransition(func(_ context.Context, from, event, to string) {
		seen = append(seen, from+">"+to)
	})

	require.NoError(t, m.Trigger(context.Background(), "GO"))
	require.NoError(t, m.Trigger(context.Background(), "SLOW"))
	assert.Equal(t, "YELLOW", m.Current())
	assert.Equal(t, []string{"RED>GREEN", "GREEN>YELLOW"}, seen)
}

func TestMachine_RejectsUnknownEvent(t *testing.T) {
	m := newLight()

	err := m.Trigger(context.Background(), "SLOW")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "RED", te.From)
	assert.Equal(t, "SLOW", te.Event)
	assert.Equal(t, "RED", m.Current())
	assert.False(t, m.Can("SLOW"))
	assert.True(t, m.Can("GO"))
}

func TestMachine_CancelledContext(t *testing.T) {
	m := newLight()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Trigger(ctx, "GO")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "RED", m.Current())
}
