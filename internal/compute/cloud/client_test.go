package cloud

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/internal/compute/types"
	"github.com/imgforge/imgforge/internal/shared/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.ComputeConfig{
		CloudURL:       srv.URL,
		RequestTimeout: 5 * time.Second,
	}, slog.New(slog.DiscardHandler))
}

func TestCreateInstance(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/servers", r.URL.Path)
		require.Equal(t, "owner-token", r.Header.Get("X-Auth-Token"))

		var req createServerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "agent-abc", req.Server.Name)
		require.Equal(t, "image-1", req.Server.ImageRef)
		require.Equal(t, "flavor-2", req.Server.FlavorRef)
		require.Len(t, req.Server.Personality, 1)

		contents, err := base64.StdEncoding.DecodeString(req.Server.Personality[0].Contents)
		require.NoError(t, err)
		require.Equal(t, "hello", string(contents))

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{"server": map[string]any{"id": "srv-42"}})
	}))

	inst, err := c.CreateInstance(context.Background(), "owner-token", &types.InstanceSpec{
		Name:     "agent-abc",
		ImageID:  "image-1",
		FlavorID: "flavor-2",
		Files: []types.InjectedFile{
			{Path: "/etc/bootstrap", Contents: []byte("hello"), Mode: "0600"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "srv-42", inst.ID)
}

func TestCreateInstanceFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))

	_, err := c.CreateInstance(context.Background(), "owner-token", &types.InstanceSpec{Name: "agent"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestDeleteInstance(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/servers/srv-42":
			w.WriteHeader(http.StatusNoContent)
		case "/servers/srv-gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))

	require.NoError(t, c.DeleteInstance(context.Background(), "owner-token", "srv-42"))

	err := c.DeleteInstance(context.Background(), "owner-token", "srv-gone")
	require.ErrorIs(t, err, types.ErrInstanceNotFound)

	err = c.DeleteInstance(context.Background(), "owner-token", "srv-boom")
	require.Error(t, err)
	require.NotErrorIs(t, err, types.ErrInstanceNotFound)
}
