package keys

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namespace scopes every derived slot to this ledger so slots never overlap
// with addresses derived by another program sharing the same substrate.
var Namespace = []byte("whaleledger/v1")

const (
	SeedConfig       = "config"
	SeedRegistry     = "registry"
	SeedSubscription = "subscription"
	SeedTrader       = "trader"
	SeedSignal       = "signal"
	SeedTokenAccount = "token_account"
)

// Slot is a derived storage address plus the disambiguator used to find it.
type Slot struct {
	Address common.Hash `json:"address"`
	Bump    uint8       `json:"bump"`
}

func (s Slot) String() string {
	return s.Address.Hex()
}

// Derive maps a seed tuple to a slot. Seeds are length-prefixed before hashing,
// so ("ab","c") and ("a","bc") resolve to different slots.
func Derive(seeds ...[]byte) Slot {
	for bump := 255; bump >= 0; bump-- {
		addr := hashSeeds(seeds, uint8(bump))
		if addr != (common.Hash{}) {
			return Slot{Address: addr, Bump: uint8(bump)}
		}
	}
	// unreachable: 256 consecutive zero keccak outputs
	panic("keys: no valid bump for seeds")
}

func hashSeeds(seeds [][]byte, bump uint8) common.Hash {
	parts := make([][]byte, 0, 2*len(seeds)+2)
	parts = append(parts, Namespace)
	var lenBuf [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		prefix := make([]byte, 4)
		copy(prefix, lenBuf[:])
		parts = append(parts, prefix, seed)
	}
	parts = append(parts, []byte{bump})
	return crypto.Keccak256Hash(parts...)
}

func ConfigSlot() Slot {
	return Derive([]byte(SeedConfig))
}

func RegistrySlot() Slot {
	return Derive([]byte(SeedRegistry))
}

func SubscriptionSlot(owner common.Hash) Slot {
	return Derive([]byte(SeedSubscription), owner.Bytes())
}

func TraderSlot(addr common.Address) Slot {
	return Derive([]byte(SeedTrader), addr.Bytes())
}

// SignalSlot keys a signal by asset and detection time. detectedAt is encoded
// little endian.
func SignalSlot(asset [16]byte, detectedAt int64) Slot {
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(detectedAt))
	return Derive([]byte(SeedSignal), asset[:], ts[:])
}

func TokenAccountSlot(owner, mint common.Hash) Slot {
	return Derive([]byte(SeedTokenAccount), owner.Bytes(), mint.Bytes())
}
