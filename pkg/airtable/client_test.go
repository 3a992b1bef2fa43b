package airtable_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"productapi/pkg/airtable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, handler http.HandlerFunc) *airtable.Table {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := airtable.NewClient(airtable.Config{
		APIKey:  "key_test",
		BaseID:  "appBase",
		BaseURL: srv.URL + "/v0",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client.Table("Products")
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := airtable.NewClient(airtable.Config{BaseID: "appBase"})
	assert.Error(t, err)

	_, err = airtable.NewClient(airtable.Config{APIKey: "key"})
	assert.Error(t, err)

	_, err = airtable.NewClient(airtable.Config{APIKey: "key", BaseID: "appBase", BaseURL: "ftp://airtable.local"})
	assert.Error(t, err)
}

func TestTable_Create(t *testing.T) {
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/appBase/Products", r.URL.Path)
		assert.Equal(t, "Bearer key_test", r.Header.Get("Authorization"))

		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Keyboard", body.Fields["name"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "rec123",
			"createdTime": "2024-05-01T10:00:00.000Z",
			"fields":      body.Fields,
		})
	})

	rec, err := table.Create(context.Background(), map[string]interface{}{"name": "Keyboard", "price": 49.9})
	require.NoError(t, err)
	assert.Equal(t, "rec123", rec.ID)
	assert.Equal(t, "Keyboard", rec.Fields["name"])
	assert.Equal(t, 49.9, rec.Fields["price"])
	assert.False(t, rec.CreatedTime.IsZero())
}

func TestTable_ListFollowsOffset(t *testing.T) {
	calls := 0
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		q := r.URL.Query()
		assert.Equal(t, "name", q.Get("sort[0][field]"))
		assert.Equal(t, "asc", q.Get("sort[0][direction]"))
		assert.Equal(t, "100", q.Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		switch q.Get("offset") {
		case "":
			_, _ = w.Write([]byte(`{"records":[{"id":"rec1","fields":{"name":"Alpha"}}],"offset":"itr1/rec1"}`))
		case "itr1/rec1":
			_, _ = w.Write([]byte(`{"records":[{"id":"rec2","fields":{"name":"Beta"}}]}`))
		default:
			t.Errorf("unexpected offset %q", q.Get("offset"))
		}
	})

	records, err := table.List(context.Background(), airtable.ListOptions{
		Sort: []airtable.Sort{{Field: "name", Direction: "asc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "rec2", records[1].ID)
}

func TestTable_FindNotFound(t *testing.T) {
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/appBase/Products/recMissing", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NOT_FOUND"}`))
	})

	rec, err := table.Find(context.Background(), "recMissing")
	assert.Nil(t, rec)
	assert.True(t, errors.Is(err, airtable.ErrNotFound))
}

func TestTable_UpdateServerError(t *testing.T) {
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"stock\" cannot accept the provided value"}}`))
	})

	_, err := table.Update(context.Background(), "rec1", map[string]interface{}{"stock": "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, airtable.ErrNotFound))

	var apiErr *airtable.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "INVALID_VALUE_FOR_COLUMN", apiErr.Type)
}

func TestTable_Destroy(t *testing.T) {
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`{"id":"rec1","deleted":true}`))
	})

	rec, err := table.Destroy(context.Background(), "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.True(t, rec.Deleted)
}

func TestTable_ExpiredContext(t *testing.T) {
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := table.Find(ctx, "rec1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTable_ReusesConnections(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rec1","fields":{"name":"Keyboard"}}`))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			dials.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)

	client, err := airtable.NewClient(airtable.Config{APIKey: "key_test", BaseID: "appBase", BaseURL: srv.URL + "/v0"})
	require.NoError(t, err)
	defer client.Close()
	table := client.Table("Products")

	for i := 0; i < 3; i++ {
		_, err := table.Find(context.Background(), "rec1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), dials.Load())
}

func TestTable_CancelledMidRequest(t *testing.T) {
	release := make(chan struct{})
	table := newTestTable(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := table.Find(ctx, "rec1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}
