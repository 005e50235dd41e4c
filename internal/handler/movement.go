package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
	"github.com/GoPolymarket/whaleledger/internal/pkg/metrics"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// EventFeed hands out movement event subscriptions.
type EventFeed interface {
	Subscribe() (<-chan *model.MovementEvent, func())
	Subscribers() int
}

type MovementHandler struct {
	notifier *service.MovementNotifier
	feed     EventFeed
	upgrader websocket.Upgrader
}

func NewMovementHandler(notifier *service.MovementNotifier, feed EventFeed) *MovementHandler {
	return &MovementHandler{
		notifier: notifier,
		feed:     feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *MovementHandler) Notify(c *gin.Context) {
	var req service.NotifyMovementRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "trader", req.Address.Hex())
	evt, err := h.notifier.Notify(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, evt)
}

// Stream upgrades to a websocket and pushes every movement event as JSON
// until the client goes away.
func (h *MovementHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Warn("movement stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe()
	metrics.StreamSubscribers.Set(float64(h.feed.Subscribers()))
	defer func() {
		cancel()
		metrics.StreamSubscribers.Set(float64(h.feed.Subscribers()))
	}()
	logger.Debug("movement stream opened", "caller", middleware.CallerFrom(c).Identity.Hex(), "subscribers", h.feed.Subscribers())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				logger.Debug("movement stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
