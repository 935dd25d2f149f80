package registry

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoom struct {
	mu           sync.Mutex
	disconnected []string
	expired      []string
}

func (that *fakeRoom) ID() string { return "r1" }

func (that *fakeRoom) PlayerDisconnected(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.disconnected = append(that.disconnected, identity)
}

func (that *fakeRoom) GraceExpired(identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.expired = append(that.expired, identity)
}

func (that *fakeRoom) expiredCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.expired)
}

func (that *fakeRoom) disconnectedCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.disconnected)
}

func newRegistry(grace time.Duration) *Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, grace)
}

func TestRegistry_BindAndRelease(t *testing.T) {
	reg := newRegistry(time.Hour)
	r := &fakeRoom{}

	// When: an identity is bound
	reg.Bind("p1", r)

	// Then: it is seated
	assert.True(t, reg.InRoom("p1"))

	bound, ok := reg.RoomOf("p1")
	require.True(t, ok)
	assert.Equal(t, "r1", bound.ID())

	// When: it is released
	reg.Release("p1")

	// Then: the binding is gone
	assert.False(t, reg.InRoom("p1"))
}

func TestRegistry_GraceExpiry(t *testing.T) {
	reg := newRegistry(20 * time.Millisecond)
	r := &fakeRoom{}
	reg.Bind("p1", r)

	// When: the identity disconnects and never returns
	reg.Disconnect("p1")

	// Then: the room is told about the drop right away
	require.Eventually(t, func() bool {
		return r.disconnectedCount() == 1
	}, 2*time.Second, 2*time.Millisecond)

	// Then: after the grace window the room resolves the absence and the
	// binding is dropped before the callback, so it can fire only once
	require.Eventually(t, func() bool {
		return r.expiredCount() == 1
	}, 2*time.Second, 2*time.Millisecond)

	assert.False(t, reg.InRoom("p1"))
}

func TestRegistry_ReconnectCancelsGrace(t *testing.T) {
	reg := newRegistry(30 * time.Millisecond)
	r := &fakeRoom{}
	reg.Bind("p1", r)

	reg.Disconnect("p1")

	// When: the identity returns inside the grace window
	reg.Reconnected("p1")

	// Then: the grace timer never fires
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, r.expiredCount())
	assert.True(t, reg.InRoom("p1"))
}

func TestRegistry_RebindCancelsGrace(t *testing.T) {
	reg := newRegistry(30 * time.Millisecond)
	r := &fakeRoom{}
	reg.Bind("p1", r)

	reg.Disconnect("p1")

	// When: the identity is bound again before grace runs out
	reg.Bind("p1", r)

	// Then: the old grace timer is dead
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, r.expiredCount())
	assert.True(t, reg.InRoom("p1"))
}

func TestRegistry_DisconnectUnknownIdentity(t *testing.T) {
	reg := newRegistry(time.Hour)

	// When: an identity that was never bound disconnects
	reg.Disconnect("ghost")

	// Then: nothing happens
	assert.False(t, reg.InRoom("ghost"))
}

func TestRegistry_DisconnectTwiceArmsOnce(t *testing.T) {
	reg := newRegistry(25 * time.Millisecond)
	r := &fakeRoom{}
	reg.Bind("p1", r)

	// When: the same drop is reported twice
	reg.Disconnect("p1")
	reg.Disconnect("p1")

	// Then: the room hears about it once and grace fires once
	require.Eventually(t, func() bool {
		return r.expiredCount() == 1
	}, 2*time.Second, 2*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, r.disconnectedCount())
	assert.Equal(t, 1, r.expiredCount())
}
