package host

import (
	"testing"

	"github.com/rpggio/endershare/internal/container"
	"github.com/stretchr/testify/require"
)

func TestMemory_ConnectLookupDisconnect(t *testing.T) {
	h := NewMemory()
	alice := h.Connect("Alice")

	id, ok := h.Lookup("alice")
	require.True(t, ok)
	require.Equal(t, alice.ID, id)
	require.Equal(t, PlayerID("ALICE"), id)
	require.Equal(t, "Alice", h.Name(id))

	view := container.NewChest(container.SharedSize)
	h.OpenView(id, view)
	require.Equal(t, view, h.Disconnect(id))

	_, ok = h.Lookup("Alice")
	require.False(t, ok)
	_, ok = h.EnderChest(id)
	require.False(t, ok)

	again := h.Connect("Alice")
	require.Same(t, alice, again)
	require.True(t, h.Online(id))
}

func TestMemory_NotifyDropsOffline(t *testing.T) {
	h := NewMemory()
	bob := h.Connect("Bob")

	h.Notify(bob.ID, "hello")
	h.Disconnect(bob.ID)
	h.Notify(bob.ID, "lost")

	require.Equal(t, []string{"hello"}, h.Drain(bob.ID))
	require.Empty(t, h.Drain(bob.ID))
}
