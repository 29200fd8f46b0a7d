package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/livedata/pkg/livedata/event"
)

type call struct {
	tag    string
	name   event.Name
	sender any
}

func recorder(calls *[]call, tag string) event.Listener {
	return func(name event.Name, _ event.Payload, sender any) {
		*calls = append(*calls, call{tag: tag, name: name, sender: sender})
	}
}

// TestHubOrdering verifies specific listeners fire before wildcard listeners.
func TestHubOrdering(t *testing.T) {
	var hub event.Hub
	var calls []call

	hub.On(event.Any, recorder(&calls, "any1"))
	hub.On(event.Add, recorder(&calls, "add1"))
	hub.On(event.Add, recorder(&calls, "add2"))
	hub.On(event.Any, recorder(&calls, "any2"))
	hub.On(event.Remove, recorder(&calls, "remove"))

	require.NoError(t, hub.Trigger(event.Add, event.Payload{Items: []any{1}}, "me"))

	tags := make([]string, len(calls))
	for i, c := range calls {
		tags[i] = c.tag
		assert.Equal(t, event.Add, c.name)
		assert.Equal(t, "me", c.sender)
	}
	assert.Equal(t, []string{"add1", "add2", "any1", "any2"}, tags)
}

func TestHubPayloadPassThrough(t *testing.T) {
	var hub event.Hub
	var got event.Payload
	hub.On(event.Update, func(_ event.Name, p event.Payload, _ any) { got = p })

	p := event.Payload{
		Items:   []any{"a"},
		OldData: []map[string]any{{"id": "a", "v": 1}},
		Data:    []map[string]any{{"id": "a", "v": 2}},
	}
	require.NoError(t, hub.Trigger(event.Update, p, nil))
	assert.Equal(t, p, got)
}

func TestHubTriggerInvalid(t *testing.T) {
	var hub event.Hub
	assert.ErrorIs(t, hub.Trigger(event.Any, event.Payload{}, nil), event.ErrInvalidEvent)
	assert.ErrorIs(t, hub.Trigger("bogus", event.Payload{}, nil), event.ErrInvalidEvent)
}

func TestHubIgnoresNilAndUnknown(t *testing.T) {
	var hub event.Hub

	sub := hub.On(event.Add, nil)
	require.NotNil(t, sub)
	assert.NotPanics(t, sub.Unsubscribe)
	assert.Equal(t, 0, hub.Count(event.Add))

	hub.On("bogus", func(event.Name, event.Payload, any) {})
	assert.Equal(t, 0, hub.Count("bogus"))
}

func TestHubOff(t *testing.T) {
	var hub event.Hub
	var calls []call

	sub := hub.On(event.Add, recorder(&calls, "a"))
	hub.On(event.Add, recorder(&calls, "b"))

	hub.Off(sub)
	hub.Off(sub)
	hub.Off(nil)

	require.NoError(t, hub.Trigger(event.Add, event.Payload{}, nil))
	require.Len(t, calls, 1)
	assert.Equal(t, "b", calls[0].tag)
}

// TestHubSnapshot verifies registrations made during dispatch wait for the
// next trigger.
func TestHubSnapshot(t *testing.T) {
	var hub event.Hub
	var calls []call

	var second event.Subscription
	hub.On(event.Add, func(event.Name, event.Payload, any) {
		calls = append(calls, call{tag: "first"})
		if second == nil {
			second = hub.On(event.Add, recorder(&calls, "late"))
		}
	})
	var victim event.Subscription
	hub.On(event.Add, func(event.Name, event.Payload, any) {
		calls = append(calls, call{tag: "remover"})
		victim.Unsubscribe()
	})
	victim = hub.On(event.Add, recorder(&calls, "victim"))

	require.NoError(t, hub.Trigger(event.Add, event.Payload{}, nil))

	tags := []string{}
	for _, c := range calls {
		tags = append(tags, c.tag)
	}
	assert.Equal(t, []string{"first", "remover", "victim"}, tags)

	calls = nil
	require.NoError(t, hub.Trigger(event.Add, event.Payload{}, nil))
	tags = tags[:0]
	for _, c := range calls {
		tags = append(tags, c.tag)
	}
	assert.Equal(t, []string{"first", "remover", "late"}, tags)
}

func TestHubPauseResume(t *testing.T) {
	var hub event.Hub
	var calls []call

	sub := hub.On(event.Remove, recorder(&calls, "r"))
	sub.Pause()
	assert.True(t, sub.IsPaused())
	require.NoError(t, hub.Trigger(event.Remove, event.Payload{}, nil))
	assert.Empty(t, calls)

	sub.Resume()
	require.NoError(t, hub.Trigger(event.Remove, event.Payload{}, nil))
	assert.Len(t, calls, 1)
}

// TestHubListenerPanicPropagates verifies a panicking listener stops delivery.
func TestHubListenerPanicPropagates(t *testing.T) {
	var hub event.Hub
	var calls []call

	hub.On(event.Add, func(event.Name, event.Payload, any) { panic("listener failed") })
	hub.On(event.Add, recorder(&calls, "after"))

	assert.PanicsWithValue(t, "listener failed", func() {
		_ = hub.Trigger(event.Add, event.Payload{}, nil)
	})
	assert.Empty(t, calls)
}
