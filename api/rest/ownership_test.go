package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/eorzealink/server/api/rest"
	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/ownership"
	"github.com/eorzealink/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOwnershipRouter(gw *testutil.FakeGateway) *gin.Engine {
	h := rest.NewOwnershipHandler(ownership.NewChain(gw, false, zap.NewNop()))
	r := gin.New()
	r.GET("/api/ownership/:item_id", h.Check)
	return r
}

func TestOwnershipCheck(t *testing.T) {
	r := newOwnershipRouter(&testutil.FakeGateway{
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag1: {{ItemID: 101, Quantity: 1}},
		},
	})

	w := getPath(r, "/api/ownership/101")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "have", resp["verdict"])
	assert.Equal(t, "Inventory", resp["source"])
}

func TestOwnershipCheckBadID(t *testing.T) {
	r := newOwnershipRouter(&testutil.FakeGateway{})
	assert.Equal(t, http.StatusBadRequest, getPath(r, "/api/ownership/zero").Code)
	assert.Equal(t, http.StatusBadRequest, getPath(r, "/api/ownership/0").Code)
}
