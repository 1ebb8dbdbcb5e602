package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gts-labs/gts/internal/ops"
	"github.com/gts-labs/gts/internal/testutil"
)

const userTypeID = "gts.acme.crm.users.user.v1~"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	o, err := ops.New(ops.Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	require.True(t, o.AddEntity(map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"$id":     userTypeID,
		"type":    "object",
		"properties": map[string]any{
			"$id":  map[string]any{"type": "string"},
			"name": map[string]any{"type": "string"},
		},
		"required": []any{"name"},
	}, false).OK)
	require.True(t, o.AddEntity(map[string]any{
		"$id":  userTypeID + "acme.app1.people.alice.v1",
		"name": "Alice",
	}, false).OK)

	srv := httptest.NewServer(New(Config{Ops: o, Logger: testutil.NewTestLogger(t)}).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func postJSON(t *testing.T, url string, payload any, wantStatus int) map[string]any {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantStatus, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestValidateIDEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/validate-id?gts_id="+userTypeID, http.StatusOK)
	assert.Equal(t, true, body["valid"])

	body = getJSON(t, srv.URL+"/validate-id?gts_id=nope", http.StatusOK)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["error"])

	body = getJSON(t, srv.URL+"/validate-id", http.StatusUnprocessableEntity)
	assert.Contains(t, body["error"], "gts_id")
}

func TestParseIDEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/parse-id?gts_id="+userTypeID, http.StatusOK)
	assert.Equal(t, true, body["ok"])
	segments := body["segments"].([]any)
	require.Len(t, segments, 1)
	seg := segments[0].(map[string]any)
	assert.Equal(t, "acme", seg["vendor"])
	assert.Equal(t, true, seg["is_type"])
}

func TestMatchIDPatternEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/match-id-pattern?candidate="+userTypeID+"acme.app1.people.alice.v1&pattern=gts.acme.crm.*", http.StatusOK)
	assert.Equal(t, true, body["match"])
}

func TestUUIDEndpoint(t *testing.T) {
	srv := newTestServer(t)

	a := getJSON(t, srv.URL+"/uuid?gts_id="+userTypeID, http.StatusOK)
	b := getJSON(t, srv.URL+"/uuid?gts_id="+userTypeID, http.StatusOK)
	assert.Equal(t, a["uuid"], b["uuid"])

	body := getJSON(t, srv.URL+"/uuid?gts_id=bad", http.StatusBadRequest)
	assert.NotEmpty(t, body["error"])
}

func TestEntitiesEndpoints(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/entities", http.StatusOK)
	assert.Equal(t, float64(2), body["total"])

	body = getJSON(t, srv.URL+"/entities?limit=1", http.StatusOK)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(2), body["total"])

	body = getJSON(t, srv.URL+"/entities/"+userTypeID+"acme.app1.people.alice.v1", http.StatusOK)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, userTypeID, body["schema_id"])

	body = getJSON(t, srv.URL+"/entities/"+userTypeID+"acme.app1.people.missing.v1", http.StatusNotFound)
	assert.Equal(t, false, body["ok"])
}

func TestAddEntityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv.URL+"/entities", map[string]any{
		"$id":  userTypeID + "acme.app1.people.bob.v1",
		"name": "Bob",
	}, http.StatusOK)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, userTypeID+"acme.app1.people.bob.v1", body["id"])

	// Validation failure is reported in-band.
	body = postJSON(t, srv.URL+"/entities?validate=true", map[string]any{
		"$id":  userTypeID + "acme.app1.people.broken.v1",
		"name": 42,
	}, http.StatusOK)
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "Validation failed")
}

func TestBulkAddEndpoint(t *testing.T) {
	srv := newTestServer(t)

	data, err := json.Marshal([]map[string]any{
		{"$id": userTypeID + "acme.app1.people.x.v1", "name": "x"},
		{"nope": true},
	})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/entities/bulk", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["ok"])
	assert.Len(t, body["results"], 2)
}

func TestAddSchemaEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv.URL+"/schemas", map[string]any{
		"type_id": "gts.acme.crm.users.group.v1~",
		"schema":  map[string]any{"type": "object"},
	}, http.StatusOK)
	assert.Equal(t, true, body["ok"])
}

func TestValidateInstanceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv.URL+"/validate-instance", map[string]any{
		"instance_id": userTypeID + "acme.app1.people.alice.v1",
	}, http.StatusOK)
	assert.Equal(t, true, body["ok"])
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/query?expr=gts.acme.crm.users.user.v1~*", http.StatusOK)
	assert.Equal(t, float64(1), body["count"])

	body = getJSON(t, srv.URL+"/query?expr=gts.acme.*&limit=9999", http.StatusBadRequest)
	assert.NotEmpty(t, body["error"])
}

func TestAttrEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/attr?gts_with_path="+userTypeID+"acme.app1.people.alice.v1@name", http.StatusOK)
	assert.Equal(t, true, body["resolved"])
	assert.Equal(t, "Alice", body["value"])
}

func TestResolveRelationshipsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/resolve-relationships?gts_id="+userTypeID+"acme.app1.people.alice.v1", http.StatusOK)
	assert.Equal(t, userTypeID+"acme.app1.people.alice.v1", body["id"])
	schemaNode := body["schema_id"].(map[string]any)
	assert.Equal(t, userTypeID, schemaNode["id"])
}

func TestCompatibilityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := getJSON(t, srv.URL+"/compatibility?old_schema_id="+userTypeID+"&new_schema_id="+userTypeID, http.StatusOK)
	assert.Equal(t, true, body["is_fully_compatible"])
}

func TestCastEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv.URL+"/cast", map[string]any{
		"instance_id":  userTypeID + "acme.app1.people.missing.v1",
		"to_schema_id": userTypeID,
	}, http.StatusOK)
	assert.NotEmpty(t, body["error"])
}

func TestExtractIDEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := postJSON(t, srv.URL+"/extract-id", map[string]any{
		"$id": userTypeID + "acme.app1.people.zed.v1",
	}, http.StatusOK)
	assert.Equal(t, userTypeID+"acme.app1.people.zed.v1", body["id"])
	assert.Equal(t, userTypeID, body["schema_id"])
}
