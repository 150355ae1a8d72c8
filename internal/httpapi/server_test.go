package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/media"
	"harmonia/internal/models"
	"harmonia/internal/player"
	"harmonia/internal/provider"
	"harmonia/internal/queue"
	"harmonia/internal/stream"
)

func newTestServer(t *testing.T) (*Server, *media.Library, *player.Manager) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	registry := provider.NewRegistry()
	bus := eventbus.New()
	lib := media.NewLibrary(db, registry, bus, nil, zap.NewNop())
	coord := stream.NewCoordinator(registry, database.NewLoudnessStore(db), config.StreamConfig{}, zap.NewNop())
	queues := queue.NewManager(lib, coord, zap.NewNop())
	players := player.NewManager(queues, bus, zap.NewNop())
	hub := player.NewWSHub(bus, zap.NewNop())
	t.Cleanup(hub.Close)

	return New(lib, players, coord, hub, zap.NewNop()), lib, players
}

func seedTrack(t *testing.T, lib *media.Library, itemID, name string, inLibrary bool) *models.Track {
	t.Helper()
	track := &models.Track{
		BaseItem: models.BaseItem{
			ItemID: itemID, Provider: "provA", Name: name, InLibrary: inLibrary,
			ProviderMappings: models.ProviderMappingSet{{
				ProviderInstance: "provA", ProviderDomain: "provA", ItemID: itemID, Available: true,
			}},
		},
		DurationSeconds: 100,
		Artists:         models.ItemMappingList{{Name: "Artist " + itemID}},
	}
	added, err := lib.Tracks.Add(context.Background(), track, true)
	require.NoError(t, err)
	return added
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestListTracksPaged(t *testing.T) {
	s, lib, _ := newTestServer(t)
	seedTrack(t, lib, "t1", "Alpha", true)
	seedTrack(t, lib, "t2", "Beta", false)

	w := doRequest(s, http.MethodGet, "/music/tracks?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count int   `json:"count"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, int64(2), page.Total)

	w = doRequest(s, http.MethodGet, "/music/tracks?in_library=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Count)
}

func TestGetTrackByDatabaseID(t *testing.T) {
	s, lib, _ := newTestServer(t)
	row := seedTrack(t, lib, "t1", "Alpha", true)

	w := doRequest(s, http.MethodGet, "/music/tracks/"+itoa(row.DBID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Track
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Alpha", got.Name)
}

func TestLibraryAddRemove(t *testing.T) {
	s, lib, _ := newTestServer(t)
	row := seedTrack(t, lib, "t1", "Alpha", false)

	w := doRequest(s, http.MethodPost, "/music/tracks/"+itoa(row.DBID)+"/library", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	updated, err := lib.Tracks.Repo().GetByID(context.Background(), row.DBID)
	require.NoError(t, err)
	assert.True(t, updated.InLibrary)

	w = doRequest(s, http.MethodDelete, "/music/tracks/"+itoa(row.DBID)+"/library", "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestUnknownDatabaseIDSurfacesError(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/music/tracks/99999", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPlayerCommandRoutes(t *testing.T) {
	s, _, players := newTestServer(t)
	players.AddPlayer(models.Player{PlayerID: "p1", ProviderID: "x", Available: false, Powered: true, State: models.PlayerStateIdle})

	w := doRequest(s, http.MethodPost, "/players/p1/pause", "")
	assert.Equal(t, http.StatusNoContent, w.Code, "unavailable player degrades to no-op")

	w = doRequest(s, http.MethodPost, "/players/p1/bogus", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodPost, "/players/p1/volume?level=40", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(s, http.MethodGet, "/players", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStreamUnknownQueueItem(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/stream/p1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/metrics", "").Code)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
