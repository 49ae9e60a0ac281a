package obs

import (
	"context"
	"errors"
	"testing"
	"time"

	"srtalert/internal/core/domain"
	"srtalert/internal/infrastructure/obs/obstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, addr, password string) *Client {
	t.Helper()
	c := NewClient(Config{Address: addr, Password: password, RequestTimeout: time.Second}, zaptest.NewLogger(t).Sugar())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func connectCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAuthResponse(t *testing.T) {
	// Reference values from the obs-websocket v5 protocol documentation
	// computed with password "supersecretpassword".
	got := authResponse("supersecretpassword", "lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI=", "+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY=")
	assert.Equal(t, "1Ct943GAT+6YQUUX47Ia/ncufilbe6+oD6lY+5kaCu4=", got)
}

func TestClient_ConnectAndListSceneItems(t *testing.T) {
	srv := obstest.NewServer("hunter2")
	defer srv.Close()
	srv.SetScene("Live",
		domain.SceneItem{SourceName: "Camera", SceneItemID: 1},
		domain.SceneItem{SourceName: "Warning", SceneItemID: 7},
	)

	c := newTestClient(t, srv.Address(), "hunter2")
	require.NoError(t, c.Connect(connectCtx(t)))
	assert.True(t, c.Connected())

	items, err := c.ListSceneItems(context.Background(), "Live")
	require.NoError(t, err)
	assert.Equal(t, []domain.SceneItem{
		{SourceName: "Camera", SceneItemID: 1},
		{SourceName: "Warning", SceneItemID: 7},
	}, items)
}

func TestClient_SetSceneItemEnabled(t *testing.T) {
	srv := obstest.NewServer("")
	defer srv.Close()
	srv.SetScene("Live", domain.SceneItem{SourceName: "Warning", SceneItemID: 7})

	c := newTestClient(t, srv.Address(), "")
	require.NoError(t, c.Connect(connectCtx(t)))

	require.NoError(t, c.SetSceneItemEnabled(context.Background(), "Live", 7, true))
	require.NoError(t, c.SetSceneItemEnabled(context.Background(), "Live", 7, false))

	assert.Equal(t, []obstest.Toggle{
		{SceneName: "Live", SceneItemID: 7, Enabled: true},
		{SceneName: "Live", SceneItemID: 7, Enabled: false},
	}, srv.Toggles())
}

func TestClient_RequestFailureStatus(t *testing.T) {
	srv := obstest.NewServer("")
	defer srv.Close()

	c := newTestClient(t, srv.Address(), "")
	require.NoError(t, c.Connect(connectCtx(t)))

	_, err := c.ListSceneItems(context.Background(), "Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRequestFailed))
	assert.Contains(t, err.Error(), "600")
	assert.True(t, c.Connected(), "a failed request does not drop the session")
}

func TestClient_WrongPassword(t *testing.T) {
	srv := obstest.NewServer("hunter2")
	defer srv.Close()

	c := newTestClient(t, srv.Address(), "wrong")
	err := c.Connect(connectCtx(t))
	require.Error(t, err)
	assert.False(t, c.Connected())
}

func TestClient_AuthRequiredWithoutPassword(t *testing.T) {
	srv := obstest.NewServer("hunter2")
	defer srv.Close()

	c := newTestClient(t, srv.Address(), "")
	err := c.Connect(connectCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password")
}

func TestClient_ConnectRefused(t *testing.T) {
	srv := obstest.NewServer("")
	addr := srv.Address()
	srv.Close()

	c := newTestClient(t, addr, "")
	require.Error(t, c.Connect(connectCtx(t)))
	assert.False(t, c.Connected())
}

func TestClient_DetectsDroppedConnection(t *testing.T) {
	srv := obstest.NewServer("")
	defer srv.Close()
	srv.SetScene("Live", domain.SceneItem{SourceName: "Warning", SceneItemID: 7})

	c := newTestClient(t, srv.Address(), "")
	require.NoError(t, c.Connect(connectCtx(t)))

	srv.DropConnections()
	assert.Eventually(t, func() bool { return !c.Connected() }, 2*time.Second, 10*time.Millisecond)

	err := c.SetSceneItemEnabled(context.Background(), "Live", 7, true)
	assert.True(t, errors.Is(err, domain.ErrNotConnected))

	require.NoError(t, c.Connect(connectCtx(t)))
	assert.True(t, c.Connected())
	assert.Equal(t, 2, srv.Connections())
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient(Config{Address: "127.0.0.1:1"}, zaptest.NewLogger(t).Sugar())

	assert.False(t, c.Connected())
	_, err := c.ListSceneItems(context.Background(), "Live")
	assert.True(t, errors.Is(err, domain.ErrNotConnected))
	assert.NoError(t, c.Close())
}

func TestClient_ConcurrentRequests(t *testing.T) {
	srv := obstest.NewServer("")
	defer srv.Close()
	srv.SetScene("Live", domain.SceneItem{SourceName: "Warning", SceneItemID: 7})

	c := newTestClient(t, srv.Address(), "")
	require.NoError(t, c.Connect(connectCtx(t)))

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			errs <- c.SetSceneItemEnabled(context.Background(), "Live", 7, i%2 == 0)
		}(i)
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-errs)
	}
	assert.Len(t, srv.Toggles(), 20)
}
