package simulations

import "math"

// Router splits a retail order across two pools so the marginal output of both is equal,
// which maximizes what the trader receives.
type Router struct{}

// Route executes order against both pools at fairPrice. Sell orders are converted to X at the fair price.
func (Router) Route(order RetailOrder, a, b *Pool, fairPrice float64, timestamp uint64) error {
	if order.Size <= 0 {
		return nil
	}

	if order.BuyX {
		ya, yb := a.y, b.y
		split := optimalSplit(order.Size, ya, yb, a.x*a.y, b.x*b.y, 1-a.askFee, 1-b.askFee)
		if _, err := a.BuyX(split, fairPrice, timestamp, FlowRetail); err != nil {
			return err
		}
		_, err := b.BuyX(order.Size-split, fairPrice, timestamp, FlowRetail)
		return err
	}

	total := order.Size / fairPrice
	split := optimalSplit(total, a.x, b.x, a.x*a.y, b.x*b.y, 1-a.bidFee, 1-b.bidFee)
	if _, err := a.SellX(split, fairPrice, timestamp, FlowRetail); err != nil {
		return err
	}
	_, err := b.SellX(total-split, fairPrice, timestamp, FlowRetail)
	return err
}

// optimalSplit returns how much of total input goes to the first pool. r1 and r2 are the
// reserves of the input asset, k1 and k2 the invariants, g1 and g2 one minus the fee.
func optimalSplit(total, r1, r2, k1, k2, g1, g2 float64) float64 {
	switch {
	case g1 <= 0 && g2 <= 0:
		return total / 2
	case g1 <= 0:
		return 0
	case g2 <= 0:
		return total
	}

	ratio := math.Sqrt(g1*k1) / math.Sqrt(g2*k2)
	amount := (ratio*(r2+g2*total) - r1) / (g1 + ratio*g2)
	return math.Max(0, math.Min(total, amount))
}
