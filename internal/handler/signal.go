package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

// Feed prices carry 8 implied decimals.
const priceDecimals int32 = 8

type SignalHandler struct {
	svc *service.SignalService
}

func NewSignalHandler(svc *service.SignalService) *SignalHandler {
	return &SignalHandler{svc: svc}
}

type signalView struct {
	*model.Signal
	SeverityName      string `json:"severity_name"`
	PriceDisplay      string `json:"price_display"`
	MultiplierDisplay string `json:"multiplier_display"`
}

func toSignalView(s *model.Signal) signalView {
	return signalView{
		Signal:            s,
		SeverityName:      s.Severity.String(),
		PriceDisplay:      formatSigned(s.Price, priceDecimals),
		MultiplierDisplay: decimal.New(int64(s.Multiplier), -2).StringFixed(2) + "x",
	}
}

func (h *SignalHandler) Publish(c *gin.Context) {
	var req service.PublishSignalRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "asset", req.Asset)
	sig, err := h.svc.Publish(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, toSignalView(sig))
}

func (h *SignalHandler) Get(c *gin.Context) {
	asset, err := model.ParseAsset(c.Param("asset"))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	detectedAt, err := strconv.ParseInt(c.Param("detectedAt"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewInvalidRequest("detectedAt must be unix seconds"))
		return
	}
	sig, err := h.svc.Get(c.Request.Context(), asset, detectedAt)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toSignalView(sig))
}

func (h *SignalHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	signals, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	out := make([]signalView, 0, len(signals))
	for _, s := range signals {
		out = append(out, toSignalView(s))
	}
	c.JSON(http.StatusOK, out)
}
