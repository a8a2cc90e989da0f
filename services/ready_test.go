package services_test

import (
	"testing"

	"fitness-battle-system/services"

	"github.com/stretchr/testify/assert"
)

func readyFixture() (*services.ReadyCoordinator, *services.ConnectionRegistry) {
	registry := services.NewConnectionRegistry()
	return services.NewReadyCoordinator(registry), registry
}

func TestReadyCoordinator_BothReady(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")
	registry.Connect(&fakeConn{}, "game-1", "bob")

	assert.False(t, ready.SetReady("game-1", "alice", true))
	assert.True(t, ready.SetReady("game-1", "bob", true))
}

func TestReadyCoordinator_DuplicateReadyFromOnePlayer(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")
	registry.Connect(&fakeConn{}, "game-1", "bob")

	assert.False(t, ready.SetReady("game-1", "alice", true))
	assert.False(t, ready.SetReady("game-1", "alice", true))
}

func TestReadyCoordinator_RequiresTwoConnectedPlayers(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")

	// Both flags true but only one player connected: never both-ready.
	ready.SetReady("game-1", "bob", true)
	assert.False(t, ready.SetReady("game-1", "alice", true))
}

func TestReadyCoordinator_UnreadyRevokes(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")
	registry.Connect(&fakeConn{}, "game-1", "bob")

	ready.SetReady("game-1", "alice", true)
	assert.True(t, ready.SetReady("game-1", "bob", true))
	assert.False(t, ready.SetReady("game-1", "alice", false))
}

func TestReadyCoordinator_ResetClearsFlags(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")
	registry.Connect(&fakeConn{}, "game-1", "bob")

	ready.SetReady("game-1", "alice", true)
	ready.Reset("game-1")

	assert.False(t, ready.IsReady("game-1", "alice"))
	assert.False(t, ready.SetReady("game-1", "bob", true))
}

func TestReadyCoordinator_GamesAreIndependent(t *testing.T) {
	ready, registry := readyFixture()
	registry.Connect(&fakeConn{}, "game-1", "alice")
	registry.Connect(&fakeConn{}, "game-1", "bob")
	registry.Connect(&fakeConn{}, "game-2", "carol")
	registry.Connect(&fakeConn{}, "game-2", "dave")

	ready.SetReady("game-1", "alice", true)
	ready.SetReady("game-2", "carol", true)

	assert.True(t, ready.SetReady("game-1", "bob", true))
	assert.False(t, ready.IsReady("game-2", "dave"))
}
