package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apirest "github.com/eorzealink/server/api/rest"
	"github.com/eorzealink/server/audit"
	"github.com/eorzealink/server/config"
	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/glamour"
	"github.com/eorzealink/server/loadout"
	mw "github.com/eorzealink/server/middleware"
	"github.com/eorzealink/server/model"
	"github.com/eorzealink/server/ownership"
	"github.com/eorzealink/server/proxy"
	"github.com/eorzealink/server/resolver"
	"github.com/eorzealink/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const proxyPage = `{
	"title": "Full Set",
	"author": "D. Tester",
	"rows": [
		{"slot": "Head", "item": "Ironworks Helm", "dyes": ["Snow White"]},
		{"slot": "Body", "item": "ironworks cuirass"},
		{"slot": "Ring", "item": "Shadowless Ring"},
		{"slot": "Ring", "item": "Ironworks Ring"},
		{"slot": "Misc", "item": "Not A Real Item 123"}
	]
}`

const liveState = `{
	"ModelId": 7,
	"Equipment": {
		"MainHand": {"ItemId": 5555, "Stain1": 0, "Stain2": 0},
		"Head": {"ItemId": 1, "Stain1": 9, "Stain2": 0},
		"Body": {"ItemId": 2, "Stain1": 0, "Stain2": 0},
		"Legs": {"ItemId": 3, "Stain1": 0, "Stain2": 0},
		"RFinger": {"ItemId": 4, "Stain1": 0, "Stain2": 0},
		"LFinger": {"ItemId": 5, "Stain1": 0, "Stain2": 0}
	}
}`

type stack struct {
	router *gin.Engine
	gw     *testutil.FakeGateway
	db     *gorm.DB
}

// newStack wires the whole service the way main does, minus the listener.
func newStack(t *testing.T) *stack {
	t.Helper()

	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/register":
			w.Write([]byte(`{"clientId":"c1","secret":"s1"}`))
		case "/parse":
			w.Write([]byte(proxyPage))
		}
	}))
	t.Cleanup(proxySrv.Close)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	gw := &testutil.FakeGateway{
		ObjectList: []gateway.ObjectRef{
			{Index: 0, Address: 0x1000},
			{Index: 4, Address: 0x2000},
		},
		PlayerAddr: 0x2000,
		PlayerOK:   true,
		State:      []byte(liveState),
		TrackerOn:  true,
		TrackerCounts: map[uint32]uint32{
			301: 1, // helm owned
			501: 3, // shadowless ring owned
		},
	}

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(context.Background()) })

	svc := loadout.New(
		proxy.NewClient(config.ProxyConfig{BaseURL: proxySrv.URL, FetchRPS: 1000},
			proxy.NewCredentialStore(db), logger),
		resolver.New(testutil.NewTestCatalog()),
		ownership.NewChain(gw, true, logger),
		glamour.NewPatcher(gw, logger),
		c,
		auditSvc,
		db,
		time.Minute,
		logger,
	)

	hash, err := bcrypt.GenerateFromPassword([]byte("integration-key"), bcrypt.MinCost)
	require.NoError(t, err)
	sec := config.SecurityConfig{
		AccessKeyHash: string(hash),
		JWTSecret:     "integration-secret",
		JWTTTLH:       time.Hour,
	}

	authH := apirest.NewAuthHandler(c, sec)
	loadoutH := apirest.NewLoadoutHandler(svc)
	ownH := apirest.NewOwnershipHandler(ownership.NewChain(gw, true, logger))

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))

	api := r.Group("/api")
	api.POST("/auth/login", authH.Login)

	authed := api.Group("")
	authed.Use(mw.Auth(sec, c))
	authed.POST("/loadout/preview", loadoutH.Preview)
	authed.GET("/loadout", loadoutH.Get)
	authed.POST("/loadout/apply", loadoutH.Apply)
	authed.GET("/loadout/history", loadoutH.History)
	authed.GET("/ownership/:item_id", ownH.Check)

	return &stack{router: r, gw: gw, db: db}
}

func (s *stack) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *stack) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"access_key": "integration-key",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["token"]
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	s := newStack(t)
	w := s.do(t, http.MethodGet, "/api/loadout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreviewThenApplyEndToEnd(t *testing.T) {
	s := newStack(t)
	token := s.login(t)

	// Preview: four of five rows resolve; the garbage row is dropped.
	w := s.do(t, http.MethodPost, "/api/loadout/preview", token, map[string]interface{}{
		"url": "https://example.com/loadout/9", "wait": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var snap loadout.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Rows, 4)
	assert.Equal(t, 1, snap.Dropped)

	// Ownership came from the tracker, zero counts included.
	assert.Equal(t, model.OwnHave, snap.Rows[0].Own)
	assert.Equal(t, model.OwnNotHave, snap.Rows[1].Own)

	// Apply.
	w2 := s.do(t, http.MethodPost, "/api/loadout/apply", token, nil)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Len(t, s.gw.AppliedStates, 1)

	root, err := glamour.ParseDocument(s.gw.AppliedStates[0])
	require.NoError(t, err)
	equip, ok := root.Object("Equipment")
	require.True(t, ok)

	itemAt := func(slot string) json.Number {
		node, ok := equip.Object(slot)
		require.True(t, ok, slot)
		v, ok := node.Get("ItemId")
		require.True(t, ok)
		return v.(json.Number)
	}

	assert.Equal(t, json.Number("301"), itemAt("Head"))
	assert.Equal(t, json.Number("302"), itemAt("Body"))
	assert.Equal(t, json.Number("5555"), itemAt("MainHand"), "main hand is never auto-cleared")
	assert.Equal(t, json.Number("0"), itemAt("Legs"), "undesired slots are cleared")

	// The last ring row wrote both finger aliases.
	assert.Equal(t, json.Number("404"), itemAt("RFinger"))
	assert.Equal(t, json.Number("404"), itemAt("LFinger"))
}

func TestPreviewHistoryAndOwnershipEndpoints(t *testing.T) {
	s := newStack(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/loadout/preview", token, map[string]interface{}{
		"url": "https://example.com/loadout/9", "wait": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w2 := s.do(t, http.MethodGet, "/api/loadout/history", token, nil)
	require.Equal(t, http.StatusOK, w2.Code)
	var hist struct {
		Previews []model.Preview `json:"previews"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &hist))
	require.Len(t, hist.Previews, 1)
	assert.Equal(t, 4, hist.Previews[0].RowCount)

	w3 := s.do(t, http.MethodGet, "/api/ownership/501", token, nil)
	require.Equal(t, http.StatusOK, w3.Code)
	var own map[string]interface{}
	require.NoError(t, json.Unmarshal(w3.Body.Bytes(), &own))
	assert.Equal(t, "have", own["verdict"])
	assert.Equal(t, "Tracker", own["source"])
}

func TestAuditTrailRecorded(t *testing.T) {
	s := newStack(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/loadout/preview", token, map[string]interface{}{
		"url": "https://example.com/loadout/9", "wait": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w2 := s.do(t, http.MethodPost, "/api/loadout/apply", token, nil)
	require.Equal(t, http.StatusOK, w2.Code)

	// The audit writer batches asynchronously.
	assert.Eventually(t, func() bool {
		var count int64
		s.db.Model(&model.AuditLog{}).Count(&count)
		return count >= 2
	}, 5*time.Second, 20*time.Millisecond)
}
