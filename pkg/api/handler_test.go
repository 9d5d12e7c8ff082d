package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookguard/pkg/auth"
	"github.com/bookwise/bookguard/pkg/bookstore"
	"github.com/bookwise/bookguard/pkg/policy"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := auth.NewMemoryProvider()
	for _, user := range []struct {
		username string
		role     policy.Role
	}{
		{"sales", policy.RoleSalesRep},
		{"support", policy.RoleCustomerService},
		{"inventory", policy.RoleInventoryManager},
	} {
		require.NoError(t, provider.CreateUser(user.username, user.username+"-token", user.role))
	}

	db, err := bookstore.Open(bookstore.Config{DBPath: ":memory:", AuthProvider: provider})
	require.NoError(t, err)
	require.NoError(t, db.Seed())

	server := httptest.NewServer(NewRouter(NewHandler(db)))
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})
	return server
}

func do(t *testing.T, server *httptest.Server, method, path, username string, body any) *http.Response {
	t.Helper()

	var payload *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		require.NoError(t, json.NewEncoder(payload).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, payload)
	require.NoError(t, err)
	if username != "" {
		req.SetBasicAuth(username, username+"-token")
	}
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	var records []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestListBooks(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/books", "sales", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	records := decodeList(t, resp)
	require.Len(t, records, 3)
	assert.Contains(t, records[0], "title")
	assert.NotContains(t, records[0], "cost_price")
}

func TestColumnProjectionParameter(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/books?columns=title,stock", "sales", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decodeList(t, resp)
	require.NotEmpty(t, records)
	assert.Len(t, records[0], 2)
}

func TestForbiddenColumnIs403(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/books?columns=title,cost_price", "sales", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeError(t, resp)
	assert.Equal(t, "COLUMN_ACCESS_DENIED", body.Error)
	assert.Contains(t, body.Detail, "cost_price")
}

func TestUngrantedResourceIs403(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/customers", "inventory", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "RESOURCE_ACCESS_DENIED", decodeError(t, resp).Error)
}

func TestMissingCredentialsIs401(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/books", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBadTokenIs401(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/books", nil)
	require.NoError(t, err)
	req.SetBasicAuth("sales", "wrong-token")
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrderStatusUpdate(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPatch, "/orders/3", "support", map[string]any{"status": "Shipped"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Sales holds no update grant on orders.
	resp = do(t, server, http.MethodPatch, "/orders/3", "sales", map[string]any{"status": "Cancelled"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "OPERATION_DENIED", decodeError(t, resp).Error)
}

func TestStockUpdate(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPatch, "/books/1", "sales", map[string]any{"stock": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// One extra column rejects the whole update.
	resp = do(t, server, http.MethodPatch, "/books/1", "sales", map[string]any{"stock": 3, "price": 1})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "COLUMN_ACCESS_DENIED", decodeError(t, resp).Error)

	// Customer service cannot touch books at all.
	resp = do(t, server, http.MethodPatch, "/books/1", "support", map[string]any{"stock": 3})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBookIntake(t *testing.T) {
	server := newTestServer(t)

	book := map[string]any{
		"title":      "Database Internals",
		"author":     "Alex Petrov",
		"price":      4299,
		"cost_price": 2200,
		"stock":      5,
	}
	resp := do(t, server, http.MethodPost, "/books", "inventory", book)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.EqualValues(t, 4, created["id"])

	resp = do(t, server, http.MethodPost, "/books", "sales", book)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOrderItems(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodGet, "/orders/1/items", "support", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records := decodeList(t, resp)
	assert.Len(t, records, 2)

	resp = do(t, server, http.MethodGet, "/orders/1/items", "inventory", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPost, "/sessions", "sales", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	sessionID, _ := session["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, string(policy.RoleSalesRep), session["role"])

	resp = do(t, server, http.MethodDelete, "/sessions/"+sessionID, "sales", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, server, http.MethodDelete, "/sessions/"+sessionID, "sales", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidRequests(t *testing.T) {
	server := newTestServer(t)

	resp := do(t, server, http.MethodPatch, "/orders/not-a-number", "support", map[string]any{"status": "Shipped"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, server, http.MethodPatch, "/orders/3", "support", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
