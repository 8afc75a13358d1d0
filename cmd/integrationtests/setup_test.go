package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	bidding "auction-engine/internal/biddingService"
	model "auction-engine/internal/models"
	"auction-engine/internal/notify"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock shared by every service under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSender keeps every email instead of delivering it
type recordingSender struct {
	mu     sync.Mutex
	emails []notify.Email
}

func (s *recordingSender) Send(_ context.Context, email notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, email)
	return nil
}

func (s *recordingSender) Sent() []notify.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Email(nil), s.emails...)
}

// TestEnv is a fully wired engine behind the HTTP router
type TestEnv struct {
	Router    *gin.Engine
	Store     repository.LedgerStore
	Scheduler *settlement.Scheduler
	Clock     *testClock
	Sender    *recordingSender
}

// SetupTestEnv wires the services over store with a controllable clock
func SetupTestEnv(t *testing.T, store repository.LedgerStore, jwtSecret string) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := &testClock{now: baseTime}
	sender := &recordingSender{}
	env := &TestEnv{
		Store:     store,
		Clock:     clock,
		Sender:    sender,
		Scheduler: settlement.NewScheduler(store, sender, settlement.WithClock(clock.Now)),
	}
	env.Router = server.SetupRouter(server.Services{
		Bidding:   bidding.NewBiddingService(store, bidding.WithClock(clock.Now)),
		Auctions:  auction.NewAuctionService(store, auction.WithClock(clock.Now)),
		JWTSecret: jwtSecret,
	})
	return env
}

// SetupTestStores returns a fresh store per backend
func SetupTestStores(t *testing.T) map[string]repository.LedgerStore {
	t.Helper()

	sqlStore, err := repository.OpenSQLRepo(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlStore.Close() })

	return map[string]repository.LedgerStore{
		"memory": repository.NewMemoryRepo(),
		"sqlite": sqlStore,
	}
}

// ExecuteRequest executes an HTTP request as caller and returns the response recorder.
// A zero caller sends no identity headers.
func ExecuteRequest(t *testing.T, router *gin.Engine, caller model.Caller, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller.UserID != "" {
		req.Header.Set(server.HeaderUserID, caller.UserID)
		req.Header.Set(server.HeaderUserRole, caller.Role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestWithToken executes an HTTP request carrying a bearer token
func ExecuteRequestWithToken(t *testing.T, env *TestEnv, token, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, caller model.Caller, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	w := ExecuteRequest(t, router, caller, method, url, body)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// Data returns the data object of a response envelope
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}

var admin = model.Caller{UserID: "root", Role: model.RoleSuperAdmin}

// RegisterUsers provisions profiles through the admin endpoint
func RegisterUsers(t *testing.T, env *TestEnv, users ...map[string]any) {
	t.Helper()
	for _, u := range users {
		_, w := ExecuteRequestAndParse(t, env.Router, admin, http.MethodPost, "/admin/users", u)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}
