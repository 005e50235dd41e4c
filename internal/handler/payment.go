package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/whaleledger/internal/middleware"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

type PaymentHandler struct {
	svc      *service.FundingService
	decimals int32
}

func NewPaymentHandler(svc *service.FundingService, decimals int32) *PaymentHandler {
	if decimals <= 0 {
		decimals = defaultDecimals
	}
	return &PaymentHandler{svc: svc, decimals: decimals}
}

type balanceView struct {
	Owner          string `json:"owner"`
	Mint           string `json:"mint"`
	Balance        uint64 `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

func (h *PaymentHandler) Credit(c *gin.Context) {
	var req service.CreditRequest
	if !bindJSON(c, &req) {
		return
	}
	middleware.AddAuditContext(c, "owner", req.Owner.Hex())
	middleware.AddAuditContext(c, "amount", req.Amount)
	acct, err := h.svc.Credit(c.Request.Context(), middleware.CallerFrom(c).Identity, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, balanceView{
		Owner:          acct.Owner.Hex(),
		Mint:           acct.Mint.Hex(),
		Balance:        acct.Balance,
		BalanceDisplay: formatAmount(acct.Balance, h.decimals),
	})
}

func (h *PaymentHandler) Balance(c *gin.Context) {
	owner, ok := identityParam(c, "owner")
	if !ok {
		return
	}
	balance, err := h.svc.Balance(c.Request.Context(), owner)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, balanceView{
		Owner:          owner.Hex(),
		Mint:           h.svc.Mint().Hex(),
		Balance:        balance,
		BalanceDisplay: formatAmount(balance, h.decimals),
	})
}
