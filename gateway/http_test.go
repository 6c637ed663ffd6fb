package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eorzealink/server/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, handler http.HandlerFunc) *gateway.HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewHTTPClient(srv.URL, time.Second, zap.NewNop())
}

func TestObjectsAndLocalPlayer(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/objects":
			w.Write([]byte(`{"objects":[{"index":0,"address":4096},{"index":2,"address":8192}]}`))
		case "/player/local":
			w.Write([]byte(`{"present":true,"address":8192}`))
		}
	})

	objects, err := c.Objects(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, uint64(8192), objects[1].Address)

	addr, present, err := c.LocalPlayerAddress(context.Background())
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, uint64(8192), addr)
}

func TestGetAndApplyState(t *testing.T) {
	var applied struct {
		SubjectIndex int             `json:"subjectIndex"`
		State        json.RawMessage `json:"state"`
		StateBase64  string          `json:"stateBase64"`
	}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/state/get":
			w.Write([]byte(`{"code":0,"state":{"Equipment":{}}}`))
		case "/state/apply":
			json.NewDecoder(r.Body).Decode(&applied)
			w.Write([]byte(`{"code":0}`))
		}
	})
	ctx := context.Background()

	code, state, err := c.GetState(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.JSONEq(t, `{"Equipment":{}}`, string(state))

	code, err = c.ApplyState(ctx, state, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 3, applied.SubjectIndex)
	assert.JSONEq(t, `{"Equipment":{}}`, string(applied.State))

	_, err = c.ApplyStateText(ctx, "eyJ9", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "eyJ9", applied.StateBase64)
}

func TestContainerQuery(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/inventory/container" && r.URL.Query().Get("id") == "1000" {
			w.Write([]byte(`{"slots":[{"itemId":301,"quantity":1}]}`))
			return
		}
		http.NotFound(w, r)
	})

	slots, err := c.Container(context.Background(), gateway.ContainerEquipped)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, uint32(301), slots[0].ItemID)
}

func TestTrackerEndpoints(t *testing.T) {
	var counted struct {
		ItemID     uint32   `json:"itemId"`
		Containers []uint32 `json:"containers"`
	}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tracker/ready":
			w.Write([]byte(`{"ready":true}`))
		case "/tracker/count":
			json.NewDecoder(r.Body).Decode(&counted)
			w.Write([]byte(`{"count":2}`))
		}
	})
	ctx := context.Background()

	assert.True(t, c.TrackerReady(ctx))

	count, err := c.TrackerCountOwned(ctx, 301, true, gateway.TrackerContainers())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)
	assert.Equal(t, uint32(301), counted.ItemID)
	assert.Len(t, counted.Containers, len(gateway.TrackerContainers()))
}

func TestTrackerUnreachableMeansNotReady(t *testing.T) {
	c := gateway.NewHTTPClient("http://127.0.0.1:1", time.Second, zap.NewNop())
	assert.False(t, c.TrackerReady(context.Background()))
}

func TestErrorStatusSurfaces(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Objects(context.Background())
	assert.Error(t, err)
}
