package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	gatewayuc "github.com/Hermela440/game/internal/modules/gateway/usecase"
	pokerdomain "github.com/Hermela440/game/internal/modules/poker/domain"
	pokeruc "github.com/Hermela440/game/internal/modules/poker/usecase"
	rpsdomain "github.com/Hermela440/game/internal/modules/rps/domain"
	rpsuc "github.com/Hermela440/game/internal/modules/rps/usecase"
	userdomain "github.com/Hermela440/game/internal/modules/user/domain"
	useruc "github.com/Hermela440/game/internal/modules/user/usecase"
	"github.com/Hermela440/game/internal/modules/wallet"
	walletdomain "github.com/Hermela440/game/internal/modules/wallet/domain"
	"github.com/Hermela440/game/pkg/logger"
)

// Handler exposes the game engine over HTTP and WebSocket
type Handler struct {
	users   *useruc.UserUseCase
	poker   *pokeruc.PokerUseCase
	rps     *rpsuc.RPSUseCase
	ledger  *wallet.Ledger
	gateway *gatewayuc.GatewayUseCase
}

// NewHandler wires the transport layer
func NewHandler(users *useruc.UserUseCase, poker *pokeruc.PokerUseCase, rps *rpsuc.RPSUseCase, ledger *wallet.Ledger, gateway *gatewayuc.GatewayUseCase) *Handler {
	return &Handler{
		users:   users,
		poker:   poker,
		rps:     rps,
		ledger:  ledger,
		gateway: gateway,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RegisterRoutes mounts every endpoint on the router
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refresh)
	}

	api := r.Group("/api/v1")
	api.Use(h.requireAuth())
	{
		api.GET("/me", h.me)
		api.GET("/wallet/balance", h.balance)
		api.GET("/wallet/transactions", h.transactions)

		api.POST("/games", h.createGame)
		api.GET("/games/:id", h.getGame)
		api.POST("/games/:id/join", h.joinGame)
		api.POST("/games/:id/leave", h.leaveGame)
		api.POST("/games/:id/start", h.startGame)
		api.POST("/games/:id/moves", h.submitMove)
		api.POST("/games/:id/cancel", h.cancelGame)
		api.GET("/rooms/:id/history", h.roomHistory)

		api.POST("/matches", h.createMatch)
		api.GET("/matches/:id", h.getMatch)
		api.POST("/matches/:id/join", h.joinMatch)
		api.POST("/matches/:id/start", h.startMatch)
		api.POST("/matches/:id/choices", h.submitChoice)
		api.POST("/matches/:id/cancel", h.cancelMatch)
	}

	r.GET("/ws", gin.WrapF(h.handleWebSocket))
}

const ctxUserID = "auth_user_id"

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		userID, err := h.users.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func authedUser(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain sentinels onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pokerdomain.ErrNotFound),
		errors.Is(err, rpsdomain.ErrNotFound),
		errors.Is(err, walletdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pokerdomain.ErrInvalidMove),
		errors.Is(err, rpsdomain.ErrInvalidMove),
		errors.Is(err, walletdomain.ErrInsufficientBalance),
		errors.Is(err, walletdomain.ErrLimitExceeded),
		errors.Is(err, userdomain.ErrInvalidCredentials):
		status = http.StatusBadRequest
	case errors.Is(err, pokerdomain.ErrIllegalTransition),
		errors.Is(err, rpsdomain.ErrIllegalTransition),
		errors.Is(err, userdomain.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, pokerdomain.ErrOnCooldown):
		status = http.StatusTooManyRequests
	case errors.Is(err, walletdomain.ErrAccountInactive),
		errors.Is(err, userdomain.ErrInvalidToken):
		status = http.StatusForbidden
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), authedUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) balance(c *gin.Context) {
	balance, err := h.ledger.Balance(c.Request.Context(), authedUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *Handler) transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.ledger.History(c.Request.Context(), authedUser(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

func (h *Handler) createGame(c *gin.Context) {
	var req struct {
		RoomID int64 `json:"room_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := h.poker.CreateGame(c.Request.Context(), req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (h *Handler) getGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.poker.GetGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) joinGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.poker.JoinGame(c.Request.Context(), gameID, authedUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) leaveGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.poker.LeaveGame(c.Request.Context(), gameID, authedUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) startGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.poker.StartGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) submitMove(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
		Amount int64  `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := h.poker.SubmitMove(c.Request.Context(), gameID, authedUser(c), req.Action, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) cancelGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.poker.CancelGame(c.Request.Context(), gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) roomHistory(c *gin.Context) {
	roomID, ok := pathID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.poker.History(c.Request.Context(), roomID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": records})
}

func (h *Handler) createMatch(c *gin.Context) {
	var req struct {
		RoomID int64 `json:"room_id" binding:"required"`
		Stake  int64 `json:"stake" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := h.rps.CreateMatch(c.Request.Context(), req.RoomID, req.Stake)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (h *Handler) getMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.rps.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) joinMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.rps.JoinMatch(c.Request.Context(), matchID, authedUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) startMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.rps.StartMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) submitChoice(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Choice string `json:"choice" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snapshot, err := h.rps.SubmitChoice(c.Request.Context(), matchID, authedUser(c), rpsdomain.Choice(req.Choice))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) cancelMatch(c *gin.Context) {
	matchID, ok := pathID(c)
	if !ok {
		return
	}
	snapshot, err := h.rps.CancelMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// clientMessage is the frame clients send over the socket
type clientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// handleWebSocket authenticates, upgrades and runs the pumps
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WebSocketContext(r)

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.users.ValidateToken(r.Context(), token)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("ws token rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("ws upgrade failed")
		return
	}
	logger.Info(ctx).
		Int64("user_id", userID).
		Str("remote_addr", r.RemoteAddr).
		Msg("ws connection established")

	manager := h.gateway.Manager()
	client := manager.Register(conn, userID)

	go client.WritePump()
	go client.ReadPump(func(userID int64, message []byte) {
		msgCtx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn(msgCtx).Err(err).Int64("user_id", userID).Msg("unreadable ws message")
			return
		}
		switch msg.Action {
		case "subscribe":
			if !manager.Subscribe(msg.Channel, userID) {
				logger.Warn(msgCtx).Int64("user_id", userID).Str("channel", msg.Channel).Msg("subscribe for unknown connection")
			}
		case "unsubscribe":
			manager.Unsubscribe(msg.Channel, userID)
		default:
			logger.Warn(msgCtx).Str("action", msg.Action).Msg("unknown ws action")
		}
	})
}
