package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubWithoutClients(t *testing.T) {
	h := NewHub(nil)
	assert.Equal(t, 0, h.ClientCount())

	// Broadcasting into an empty hub is a no-op, not a panic.
	h.Notify("Aspirin", true)
	h.Notify("Aspirin", false)
	h.Broadcast(Event{Type: "reminder", Medication: "Aspirin"})
	assert.Equal(t, 0, h.ClientCount())
}
