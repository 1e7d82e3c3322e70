package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/internal/handler"
	"sudooom.switcher/internal/health"
	"sudooom.switcher/pkg/proto"
)

type fakeNATS struct{ connected bool }

func (f *fakeNATS) IsConnected() bool { return f.connected }

type fakeRedis struct{ err error }

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

type fakeDB struct{ err error }

func (f *fakeDB) Ping(ctx context.Context) error { return f.err }

type fakeReader struct{}

func (fakeReader) View(ctx context.Context, gameID string) (*proto.GameView, error) {
	if gameID != "g1" {
		return nil, game.ErrGameNotFound
	}
	return &proto.GameView{Id: "g1", Status: "waiting"}, nil
}

func (fakeReader) Board(ctx context.Context, gameID string) (*proto.BoardView, error) {
	return nil, core.ErrGameNotInProgress
}

func (fakeReader) Figures(ctx context.Context, gameID string) ([]proto.FigureView, error) {
	return []proto.FigureView{{Fig: "fige06", Tiles: []proto.Coordinate{{X: 0, Y: 0}}}}, nil
}

// APIResponse 用于解析响应体
type APIResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestRouter(nc *fakeNATS, rdb *fakeRedis) *gin.Engine {
	checker := health.NewChecker(nc, rdb, &fakeDB{}, func() int { return 3 })
	return SetupRouter(gin.TestMode, checker, handler.NewQueryHandler(fakeReader{}))
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := setupTestRouter(&fakeNATS{connected: true}, &fakeRedis{})
	w := get(t, r, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var status health.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "connected", status.Redis)
	assert.Equal(t, 3, status.ActiveGames)

	r = setupTestRouter(&fakeNATS{connected: true}, &fakeRedis{err: errors.New("refused")})
	w = get(t, r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "disconnected", status.Redis)
}

func TestReady(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(t, setupTestRouter(&fakeNATS{connected: true}, &fakeRedis{}), "/ready").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, setupTestRouter(&fakeNATS{}, &fakeRedis{}), "/ready").Code)
}

func TestGameQueries(t *testing.T) {
	r := setupTestRouter(&fakeNATS{connected: true}, &fakeRedis{})

	w := get(t, r, "/api/v1/games/g1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Code)
	var view proto.GameView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "g1", view.Id)

	w = get(t, r, "/api/v1/games/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, handler.CodeGameNotFound, resp.Code)

	w = get(t, r, "/api/v1/games/g1/board")
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, core.ErrGameNotInProgress.Code, resp.Code)

	w = get(t, r, "/api/v1/games/g1/figures")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var figures []proto.FigureView
	require.NoError(t, json.Unmarshal(resp.Data, &figures))
	require.Len(t, figures, 1)
	assert.Equal(t, "fige06", figures[0].Fig)
}
