//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	_, ok := ctx.Deadline()
	require.False(t, ok)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestClient_callContextActor ensures the configured actor is sent as metadata.
func TestClient_callContextActor(t *testing.T) {
	t.Parallel()

	c := new(Client)
	WithCallerActor(Actor{Hostname: "desk", Username: "ann"})(c)

	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"desk"}, md.Get(hostnameKey))
	require.Equal(t, []string{"ann"}, md.Get(usernameKey))
}

// TestClient_RequiresID asserts that id-based calls reject empty ids before dialing.
func TestClient_RequiresID(t *testing.T) {
	t.Parallel()

	c := new(Client)

	require.ErrorIs(t, c.Cancel(context.Background(), ""), errIDRequired)
	require.ErrorIs(t, c.Fire(context.Background(), "", "t", "b"), errIDRequired)
}
