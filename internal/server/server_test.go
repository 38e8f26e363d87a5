package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antialias/abaci-one-sub007/internal/auth"
	"github.com/antialias/abaci-one-sub007/internal/config"
	"github.com/antialias/abaci-one-sub007/internal/game"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Server) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		MismatchDelay: 0,
	}
	s := New(cfg, game.NewManager(cfg.MismatchDelay))
	return s.Router(), s
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestListVariants(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/variants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.ElementsMatch(t, []any{"numerals", "maketen"}, body["variants"])
}

func TestCreateAndListRooms(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{
		"variant": "numerals",
		"config":  gin.H{"difficulty": 4},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "numerals", created["variant"])
	assert.Equal(t, "setup", created["phase"])
	assert.Equal(t, false, created["private"])

	w = doJSON(t, r, http.MethodGet, "/api/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rooms := decode(t, w)["rooms"].([]any)
	require.Len(t, rooms, 1)
}

func TestCreateRoomUnknownVariant(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"variant": "chess"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRoomInvalidConfig(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{
		"variant": "numerals",
		"config":  gin.H{"difficulty": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{
		"variant": "maketen",
		"config":  gin.H{"difficulty": 4, "fields": gin.H{"targetSum": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Leaving the config empty is fine: setup fills it in later.
	w = doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"variant": "numerals"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestJoinRoomIssuesToken(t *testing.T) {
	r, s := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"variant": "numerals"})
	require.Equal(t, http.StatusCreated, w.Code)
	roomID := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/"+roomID+"/join", gin.H{"player": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "p1", body["player"])

	claims, err := auth.VerifyToken([]byte(s.cfg.JWTSecret), body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, roomID, claims.RoomID)
	assert.Equal(t, body["userId"], claims.UserID)
	assert.Equal(t, []string{"p1"}, claims.Players)
}

func TestJoinRoomSeatConflict(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{"variant": "numerals"})
	roomID := decode(t, w)["id"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/"+roomID+"/join", gin.H{"player": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/rooms/"+roomID+"/join", gin.H{"player": "p1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJoinRoomPasscode(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/rooms", gin.H{
		"variant":  "maketen",
		"passcode": "hunter2",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	roomID := created["id"].(string)
	assert.Equal(t, true, created["private"])

	w = doJSON(t, r, http.MethodPost, "/api/rooms/"+roomID+"/join", gin.H{
		"player":   "p1",
		"passcode": "wrong",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/"+roomID+"/join", gin.H{
		"player":   "p1",
		"passcode": "hunter2",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoomNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/rooms/2d1f3a34-7c1c-46f1-9f6e-000000000000/join", gin.H{"player": "p1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/rooms/not-a-uuid/join", gin.H{"player": "p1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])
}
