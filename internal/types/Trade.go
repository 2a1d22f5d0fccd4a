package types

import sdkmath "cosmossdk.io/math"

// Side names one of the two quoted fees.
type Side uint8

const (
	SideNone Side = iota
	SideBid
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "none"
	}
}

// Other returns the opposite side. SideNone maps to itself.
func (s Side) Other() Side {
	switch s {
	case SideBid:
		return SideAsk
	case SideAsk:
		return SideBid
	default:
		return SideNone
	}
}

// TradeEvent describes one executed swap as seen by the fee controller. Amounts and reserves are
// WAD scaled and reserves are the post-trade state.
//
// IsBuy is true when the pool bought X from the trader (reserveX increased, reserveY decreased).
// The bid fee priced that trade; the ask is the side the next arbitrageur would hit.
type TradeEvent struct {
	AmountX   sdkmath.Int `json:"amount_x"`
	AmountY   sdkmath.Int `json:"amount_y"`
	ReserveX  sdkmath.Int `json:"reserve_x"`
	ReserveY  sdkmath.Int `json:"reserve_y"`
	IsBuy     bool        `json:"is_buy"`
	Timestamp uint64      `json:"timestamp"` // Logical step index. Several trades may share one.
}

// SameSide is the side that priced this trade.
func (t TradeEvent) SameSide() Side {
	if t.IsBuy {
		return SideBid
	}
	return SideAsk
}

// OppositeSide is the side that receives the spike under contrarian policies.
func (t TradeEvent) OppositeSide() Side {
	return t.SameSide().Other()
}
