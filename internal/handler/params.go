package handler

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
	"github.com/GoPolymarket/whaleledger/internal/service"
)

// USDC base units.
const defaultDecimals int32 = 6

func pageParams(c *gin.Context) (int, int) {
	limit := 100
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}

func addressParam(c *gin.Context) (common.Address, bool) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.Error(apperrors.NewInvalidRequest("invalid trader address: " + raw))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func identityParam(c *gin.Context, name string) (model.Identity, bool) {
	id, err := service.ParseIdentity(c.Param(name))
	if err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return model.Identity{}, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return false
	}
	return true
}

// formatAmount renders base units with a fixed number of decimals.
func formatAmount(v uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -decimals).StringFixed(decimals)
}

func formatSigned(v int64, decimals int32) string {
	return decimal.New(v, -decimals).StringFixed(decimals)
}
