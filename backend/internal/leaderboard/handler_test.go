package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store ScoreStore) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(store, 10, log.New(io.Discard, "", 0)).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_PostThenGet(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp, err := http.Post(srv.URL+"/api/scores", "application/json", strings.NewReader(`{"name":"alice","score":15}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var created Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "alice", created.Name)
	assert.Equal(t, 15, created.Score)

	resp, err = http.Get(srv.URL + "/api/scores")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var top []Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&top))
	require.Len(t, top, 1)
	assert.Equal(t, created.ID, top[0].ID)
}

func TestHandler_EmptyListIsArray(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	resp, err := http.Get(srv.URL + "/api/scores")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestHandler_BadRequests(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	bodies := []string{
		`not json`,
		`{"name":"bob"}`,
		`{"name":"bob","score":-3}`,
		`{"name":"bob","score":"many"}`,
		`{"name":"` + strings.Repeat("z", 40) + `","score":1}`,
	}
	for _, body := range bodies {
		resp, err := http.Post(srv.URL+"/api/scores", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

		var msg errorResponse
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
		assert.NotEmpty(t, msg.Message)
		resp.Body.Close()
	}
}

type failingStore struct{}

func (failingStore) Create(context.Context, string, int) (Entry, error) {
	return Entry{}, errors.New("disk full")
}

func (failingStore) Top(context.Context, int) ([]Entry, error) {
	return nil, errors.New("disk full")
}

func TestHandler_StoreFailures(t *testing.T) {
	srv := newTestServer(t, failingStore{})

	resp, err := http.Get(srv.URL + "/api/scores")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/scores", "application/json", strings.NewReader(`{"name":"x","score":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandler_Preflight(t *testing.T) {
	srv := newTestServer(t, newTestStore(t))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/scores", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
