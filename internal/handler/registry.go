package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

type RegistryHandler struct {
	svc *service.RegistryService
}

func NewRegistryHandler(svc *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

type traderView struct {
	*model.TrackedTrader
	TierName        string `json:"tier_name"`
	Bucket          string `json:"bucket"`
	TotalPnlDisplay string `json:"total_pnl_display"`
	VolumeDisplay   string `json:"total_volume_display"`
}

func toTraderView(t *model.TrackedTrader) traderView {
	return traderView{
		TrackedTrader:   t,
		TierName:        t.Tier.String(),
		Bucket:          string(t.Tier.Bucket()),
		TotalPnlDisplay: formatSigned(t.TotalPnl, defaultDecimals),
		VolumeDisplay:   formatAmount(t.TotalVolume, defaultDecimals),
	}
}

func (h *RegistryHandler) Initialize(c *gin.Context) {
	reg, err := h.svc.Initialize(c.Request.Context(), middleware.CallerFrom(c).Identity)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h *RegistryHandler) Get(c *gin.Context) {
	reg, err := h.svc.GetRegistry(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (h *RegistryHandler) AddTrader(c *gin.Context) {
	var req service.AddTraderRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "trader", req.Address.Hex())
	trader, err := h.svc.AddTrader(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toTraderView(trader))
}

func (h *RegistryHandler) UpdateTrader(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	var req service.UpdateTraderRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "trader", addr.Hex())
	trader, err := h.svc.UpdateTrader(c.Request.Context(), middleware.CallerFrom(c).Identity, addr, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTraderView(trader))
}

func (h *RegistryHandler) LinkTrader(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	var req service.LinkTraderRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "trader", addr.Hex())
	trader, err := h.svc.LinkTrader(c.Request.Context(), middleware.CallerFrom(c).Identity, addr, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTraderView(trader))
}

func (h *RegistryHandler) RemoveTrader(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	middleware.AddAuditContext(c, "trader", addr.Hex())
	if err := h.svc.RemoveTrader(c.Request.Context(), middleware.CallerFrom(c).Identity, addr); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *RegistryHandler) GetTrader(c *gin.Context) {
	addr, ok := addressParam(c)
	if !ok {
		return
	}
	trader, err := h.svc.GetTrader(c.Request.Context(), addr)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toTraderView(trader))
}

func (h *RegistryHandler) ListTraders(c *gin.Context) {
	limit, offset := pageParams(c)
	traders, err := h.svc.ListTraders(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]traderView, 0, len(traders))
	for _, t := range traders {
		out = append(out, toTraderView(t))
	}
	c.JSON(http.StatusOK, out)
}
