package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

type SubscriptionHandler struct {
	svc      *service.SubscriptionService
	clock    service.Clock
	decimals int32
}

func NewSubscriptionHandler(svc *service.SubscriptionService, clock service.Clock, decimals int32) *SubscriptionHandler {
	if clock == nil {
		clock = service.SystemClock{}
	}
	if decimals <= 0 {
		decimals = defaultDecimals
	}
	return &SubscriptionHandler{svc: svc, clock: clock, decimals: decimals}
}

type subscriptionView struct {
	*model.Subscription
	TierName         string `json:"tier_name"`
	Active           bool   `json:"active"`
	TotalPaidDisplay string `json:"total_paid_display"`
}

func (h *SubscriptionHandler) view(sub *model.Subscription) subscriptionView {
	return subscriptionView{
		Subscription:     sub,
		TierName:         sub.Tier.String(),
		Active:           sub.IsActive(h.clock.Now()),
		TotalPaidDisplay: formatAmount(sub.TotalPaid, h.decimals),
	}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "tier", req.Tier)
	sub, err := h.svc.Subscribe(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(sub))
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	owner, ok := identityParam(c, "owner")
	if !ok {
		return
	}
	sub, err := h.svc.Get(c.Request.Context(), owner)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(sub))
}
