package bus

import (
	"testing"

	"github.com/illarion/dehook/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub(zap.NewNop(), 2)
	a := hub.Subscribe()
	b := hub.Subscribe()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, hub.Len())

	hub.Publish(settings.Default())

	for _, sub := range []*Subscription{a, b} {
		msg := <-sub.C
		assert.Equal(t, SettingsUpdated, msg.Type)
		assert.Contains(t, string(msg.Payload), `"hideShorts":true`)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub(zap.NewNop(), 2)
	sub := hub.Subscribe()

	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe(sub.ID)
	hub.Unsubscribe("unknown")

	_, open := <-sub.C
	assert.False(t, open)
	assert.Zero(t, hub.Len())

	hub.Publish(settings.Default())
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.Publish(settings.Default())
	<-fast.C
	hub.Publish(settings.Default())

	assert.Equal(t, 1, hub.Len(), "slow consumer should be dropped")

	_, open := <-slow.C
	require.True(t, open, "buffered message is still delivered")
	_, open = <-slow.C
	assert.False(t, open)

	msg, open := <-fast.C
	require.True(t, open)
	assert.Equal(t, SettingsUpdated, msg.Type)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(zap.NewNop(), 0)
	sub := hub.Subscribe()
	hub.Close()

	_, open := <-sub.C
	assert.False(t, open)

	late := hub.Subscribe()
	_, open = <-late.C
	assert.False(t, open)
}
