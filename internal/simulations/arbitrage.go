package simulations

import "math"

// Arbitrageur trades a pool to the point where its marginal price, net of fee, equals the fair price.
type Arbitrageur struct{}

// Trade executes at most one trade against pool and reports whether it traded.
func (Arbitrageur) Trade(pool *Pool, fairPrice float64, timestamp uint64) (bool, error) {
	x, y := pool.Reserves()
	bid, ask := pool.Fees()
	k := x * y
	spot := y / x

	gammaBid := 1 - bid
	gammaAsk := 1 - ask

	switch {
	case spot*gammaBid > fairPrice:
		// Pool overprices X: sell X into it.
		xEff := math.Sqrt(gammaBid * k / fairPrice)
		dx := (xEff - x) / gammaBid
		if dx < minTradeSize {
			return false, nil
		}
		_, err := pool.SellX(dx, fairPrice, timestamp, FlowArbitrage)
		return err == nil, err

	case spot/gammaAsk < fairPrice:
		// Pool underprices X: buy X from it with Y.
		yEff := math.Sqrt(fairPrice * gammaAsk * k)
		dy := (yEff - y) / gammaAsk
		if dy < minTradeSize {
			return false, nil
		}
		_, err := pool.BuyX(dy, fairPrice, timestamp, FlowArbitrage)
		return err == nil, err
	}
	return false, nil
}
