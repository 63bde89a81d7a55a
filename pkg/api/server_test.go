package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdant-labs/greenledger/pkg/engine"
)

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	e, err := engine.New(engine.Config{Owner: "owner"})
	require.NoError(t, err)
	return NewServer(e, nil, opts...).Handler()
}

// do issues a request with the dev principal header.
func do(h http.Handler, method, path, principal string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitVerifyOverHTTP(t *testing.T) {
	h := newTestServer(t)

	rec := do(h, http.MethodPost, "/v1/actions", "alice", SubmitActionRequest{
		ActionType: "cleanup", LocationHash: "loc", ProofHash: "proof",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created["action_id"])

	rec = do(h, http.MethodGet, "/v1/pending?user=alice&id=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/v1/actions/verify", "owner", VerifyActionRequest{User: "alice", ActionID: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/v1/tokens/balance?principal=alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bal map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, uint64(100), bal["balance"])

	rec = do(h, http.MethodGet, "/v1/pending?user=alice&id=1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/v1/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["total_actions"])
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t)

	// Unauthenticated mutation.
	rec := do(h, http.MethodPost, "/v1/actions", "", SubmitActionRequest{ActionType: "cleanup", LocationHash: "l", ProofHash: "p"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown action type.
	rec = do(h, http.MethodPost, "/v1/actions", "alice", SubmitActionRequest{ActionType: "composting", LocationHash: "l", ProofHash: "p"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Submit one valid action.
	rec = do(h, http.MethodPost, "/v1/actions", "alice", SubmitActionRequest{ActionType: "cleanup", LocationHash: "l", ProofHash: "p"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Non-owner verification attempt.
	rec = do(h, http.MethodPost, "/v1/actions/verify", "mallory", VerifyActionRequest{User: "alice", ActionID: 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown action.
	rec = do(h, http.MethodPost, "/v1/actions/verify", "owner", VerifyActionRequest{User: "alice", ActionID: 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Double verification.
	rec = do(h, http.MethodPost, "/v1/actions/verify", "owner", VerifyActionRequest{User: "alice", ActionID: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(h, http.MethodPost, "/v1/actions/verify", "owner", VerifyActionRequest{User: "alice", ActionID: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Overdrawn transfer.
	rec = do(h, http.MethodPost, "/v1/tokens/trade", "alice", TradeRequest{To: "bob", Amount: 500})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Problem detail shape.
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, http.StatusConflict, problem.Status)
	assert.NotEmpty(t, problem.Title)
}

func TestSponsorEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(h, http.MethodPost, "/v1/sponsors/contribute", "acme", ContributeRequest{Amount: 100})
	assert.Equal(t, http.StatusNotFound, rec.Code, "unregistered sponsor")

	rec = do(h, http.MethodPost, "/v1/sponsors", "acme", RegisterSponsorRequest{Name: "Acme Corp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Default engine funds source has no accounts: transfer fails.
	rec = do(h, http.MethodPost, "/v1/sponsors/contribute", "acme", ContributeRequest{Amount: 100})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodGet, "/v1/sponsors?principal=acme", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Acme Corp", info["name"])
}

func TestAdminEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(h, http.MethodPost, "/v1/admin/toggle", "mallory", ToggleRequest{Enabled: false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPost, "/v1/admin/toggle", "owner", ToggleRequest{Enabled: false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/v1/actions", "alice", SubmitActionRequest{ActionType: "cleanup", LocationHash: "l", ProofHash: "p"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "disabled registry rejects submissions")

	rec = do(h, http.MethodPost, "/v1/admin/verifiers", "owner", VerifierRequest{Verifier: "auditor"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(h, http.MethodGet, "/v1/admin/verifiers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auditor")

	rec = do(h, http.MethodPost, "/v1/admin/token-uri", "owner", TokenURIRequest{URI: "ipfs://eco"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(h, http.MethodGet, "/v1/tokens/meta", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ipfs://eco")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)
	rec := do(h, http.MethodDelete, "/v1/actions", "alice", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

func TestRateLimitedMutationsRejected(t *testing.T) {
	h := newTestServer(t, WithLimiter(denyAllLimiter{}))

	rec := do(h, http.MethodPost, "/v1/actions", "alice", SubmitActionRequest{ActionType: "cleanup", LocationHash: "l", ProofHash: "p"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are never throttled.
	rec = do(h, http.MethodGet, "/v1/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingUserQueryParameter(t *testing.T) {
	h := newTestServer(t)

	rec := do(h, http.MethodGet, "/v1/actions?id=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing user is a bad request, not a lookup miss")

	rec = do(h, http.MethodGet, "/v1/pending?id=1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/v1/actions?user=alice", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing id is a bad request")
}

func TestLocalLimiterAllowsWithinBudget(t *testing.T) {
	l := NewLocalLimiter(60, 2)
	t.Cleanup(func() { _ = l.Close() })
	ctx := context.Background()

	ok1, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	ok2, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	ok3, err := l.Allow(ctx, "alice")
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3, "burst of 2 exhausted")

	ok, err := l.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestLocalLimiterCloseIsIdempotent(t *testing.T) {
	l := NewLocalLimiter(60, 1)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	// The limiter still answers after Close; only the background
	// eviction stops.
	ok, err := l.Allow(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
