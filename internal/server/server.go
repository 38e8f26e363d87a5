// Package server exposes the session service over HTTP: a small REST
// surface for room lifecycle and a websocket per room for gameplay.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/engine"
	"github.com/antialias/abaci-one-sub007/engine/variants"
	"github.com/antialias/abaci-one-sub007/internal/auth"
	"github.com/antialias/abaci-one-sub007/internal/config"
	"github.com/antialias/abaci-one-sub007/internal/database"
	"github.com/antialias/abaci-one-sub007/internal/game"
)

// Server wires the room manager to the HTTP surface.
type Server struct {
	cfg     *config.Config
	manager *game.Manager

	mu   sync.Mutex
	hubs map[uuid.UUID]*hub
}

// New builds a server around an existing room manager.
func New(cfg *config.Config, manager *game.Manager) *Server {
	return &Server{
		cfg:     cfg,
		manager: manager,
		hubs:    make(map[uuid.UUID]*hub),
	}
}

// Router assembles the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	api := r.Group("/api")
	{
		api.GET("/variants", s.listVariants)
		api.GET("/rooms", s.listRooms)
		api.POST("/rooms", s.createRoom)
		api.POST("/rooms/:id/join", s.joinRoom)
		api.GET("/rooms/:id/transcript", s.roomTranscript)
		api.GET("/reports", s.recentReports)
	}
	r.GET("/ws/:id", s.serveWS)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"dur":    time.Since(start),
		}).Info("http")
	}
}

func (s *Server) listVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": variants.Names()})
}

func (s *Server) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.manager.List()})
}

type createRoomReq struct {
	Variant  string        `json:"variant" binding:"required"`
	Config   engine.Config `json:"config"`
	Passcode string        `json:"passcode"`
}

func (s *Server) createRoom(c *gin.Context) {
	var req createRoomReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var passcodeHash string
	if req.Passcode != "" {
		hash, err := auth.HashPasscode(req.Passcode)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to secure room"})
			return
		}
		passcodeHash = hash
	}

	room, err := s.manager.Create(req.Variant, req.Config, passcodeHash)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h := newHub(room.ID)
	h.attach(room)
	s.mu.Lock()
	s.hubs[room.ID] = h
	s.mu.Unlock()

	c.JSON(http.StatusCreated, room.Info())
}

type joinRoomReq struct {
	Player   engine.PlayerID `json:"player" binding:"required"`
	Passcode string          `json:"passcode"`
}

// joinRoom claims a seat and issues the token the websocket handshake
// requires. Joining twice with the same seat re-issues a token.
func (s *Server) joinRoom(c *gin.Context) {
	room, ok := s.roomFromParam(c)
	if !ok {
		return
	}

	var req joinRoomReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if room.PasscodeHash != "" && !auth.CheckPasscode(room.PasscodeHash, req.Passcode) {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong passcode"})
		return
	}

	userID := uuid.New()
	if err := room.ClaimSeat(req.Player, userID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.CreateToken(
		[]byte(s.cfg.JWTSecret), userID, room.ID,
		[]engine.PlayerID{req.Player}, s.cfg.TokenTTL,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId": userID,
		"player": req.Player,
		"token":  token,
	})
}

func (s *Server) roomTranscript(c *gin.Context) {
	room, ok := s.roomFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": room.TranscriptTail(0)})
}

func (s *Server) recentReports(c *gin.Context) {
	reports, err := database.RecentReports(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reports"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// serveWS upgrades the connection after verifying the join token and binds
// it into the room's hub.
func (s *Server) serveWS(c *gin.Context) {
	room, ok := s.roomFromParam(c)
	if !ok {
		return
	}

	token := c.Query("token")
	claims, err := auth.VerifyToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if claims.RoomID != room.ID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "token is for a different room"})
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	s.mu.Lock()
	h := s.hubs[room.ID]
	s.mu.Unlock()
	if h == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket accept failed")
		return
	}

	client := &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	h.add(client)
	defer h.remove(client)

	ctx := c.Request.Context()
	go client.writeLoop(ctx)
	room.HandleReconnect(userID)
	client.readLoop(ctx, room)
}

func (s *Server) roomFromParam(c *gin.Context) (*game.Room, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return nil, false
	}
	room, err := s.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	return room, true
}
