package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

type ConfigHandler struct {
	svc      *service.ConfigService
	decimals int32
}

func NewConfigHandler(svc *service.ConfigService, decimals int32) *ConfigHandler {
	if decimals <= 0 {
		decimals = defaultDecimals
	}
	return &ConfigHandler{svc: svc, decimals: decimals}
}

type configView struct {
	*model.ProgramConfig
	BasicPriceDisplay string `json:"basic_price_display"`
	ProPriceDisplay   string `json:"pro_price_display"`
}

func (h *ConfigHandler) view(cfg *model.ProgramConfig) configView {
	return configView{
		ProgramConfig:     cfg,
		BasicPriceDisplay: formatAmount(cfg.BasicPrice, h.decimals),
		ProPriceDisplay:   formatAmount(cfg.ProPrice, h.decimals),
	}
}

func (h *ConfigHandler) Initialize(c *gin.Context) {
	var req service.InitializeConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.svc.Initialize(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, h.view(cfg))
}

func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(cfg))
}

type setPausedRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

func (h *ConfigHandler) SetPaused(c *gin.Context) {
	var req setPausedRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "paused", *req.Paused)
	cfg, err := h.svc.SetPaused(c.Request.Context(), middleware.CallerFrom(c).Identity, *req.Paused)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(cfg))
}

func (h *ConfigHandler) UpdatePricing(c *gin.Context) {
	var req service.UpdatePricingRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.svc.UpdatePricing(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(cfg))
}

type setPayoutRequest struct {
	PayoutDestination model.Identity `json:"payout_destination" binding:"required"`
}

func (h *ConfigHandler) SetPayoutDestination(c *gin.Context) {
	var req setPayoutRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "payout", req.PayoutDestination.Hex())
	cfg, err := h.svc.SetPayoutDestination(c.Request.Context(), middleware.CallerFrom(c).Identity, req.PayoutDestination)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.view(cfg))
}
