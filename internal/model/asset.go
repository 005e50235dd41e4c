package model

import (
	"bytes"
	"strings"

	"github.com/GoPolymarket/whaleledger/internal/pkg/apperrors"
)

// Asset is a 16-byte asset identifier such as "BTC/USD", zero padded.
type Asset [16]byte

func ParseAsset(symbol string) (Asset, error) {
	var a Asset
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return a, apperrors.NewValidation("asset symbol is required")
	}
	if len(symbol) > len(a) {
		return a, apperrors.NewValidation("asset symbol %q exceeds %d bytes", symbol, len(a))
	}
	copy(a[:], symbol)
	return a, nil
}

func (a Asset) String() string {
	return string(bytes.TrimRight(a[:], "\x00"))
}

func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
