/*

This file contains the types consumed and produced by the market simulator.

*/

package types

// SimulationParameters describes one simulated market. Reserves and prices are plain floats here;
// the pool converts them to WAD values at the controller boundary.
type SimulationParameters struct {
	Steps        int     `json:"steps" toml:"steps"`                 // Number of price steps (also the timestamp range).
	InitialPrice float64 `json:"initial_price" toml:"initial_price"` // Fair price of X in Y at step zero.
	InitialX     float64 `json:"initial_x" toml:"initial_x"`         // Starting reserve of X in each pool.
	InitialY     float64 `json:"initial_y" toml:"initial_y"`         // Starting reserve of Y in each pool.

	// --- Price Process (geometric Brownian motion) ---
	GbmMu    float64 `json:"gbm_mu" toml:"gbm_mu"`
	GbmSigma float64 `json:"gbm_sigma" toml:"gbm_sigma"`
	GbmDt    float64 `json:"gbm_dt" toml:"gbm_dt"`

	// --- Retail Flow ---
	RetailArrivalRate float64 `json:"retail_arrival_rate" toml:"retail_arrival_rate"` // Poisson mean of orders per step.
	RetailMeanSize    float64 `json:"retail_mean_size" toml:"retail_mean_size"`       // Mean order notional in Y.
	RetailSizeSigma   float64 `json:"retail_size_sigma" toml:"retail_size_sigma"`     // Log-normal sigma of the order notional.
	RetailBuyProb     float64 `json:"retail_buy_prob" toml:"retail_buy_prob"`         // Probability an order buys X.

	NormalizerFeeBps uint64 `json:"normalizer_fee_bps" toml:"normalizer_fee_bps"` // Constant fee of the reference pool.
}

// VarianceParameters draws per-replica market parameters so that a match is not tuned to one calibration.
type VarianceParameters struct {
	VarySigma bool    `json:"vary_sigma" toml:"vary_sigma"`
	SigmaMin  float64 `json:"sigma_min" toml:"sigma_min"`
	SigmaMax  float64 `json:"sigma_max" toml:"sigma_max"`

	VaryRetailRate bool    `json:"vary_retail_rate" toml:"vary_retail_rate"`
	RetailRateMin  float64 `json:"retail_rate_min" toml:"retail_rate_min"`
	RetailRateMax  float64 `json:"retail_rate_max" toml:"retail_rate_max"`

	VaryRetailSize bool    `json:"vary_retail_size" toml:"vary_retail_size"`
	RetailSizeMin  float64 `json:"retail_size_min" toml:"retail_size_min"`
	RetailSizeMax  float64 `json:"retail_size_max" toml:"retail_size_max"`
}

// Outcome classifies one replica against the normalizer.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLoss Outcome = "loss"
)

// PoolMetrics accumulates what happened to one pool during a replica.
type PoolMetrics struct {
	Edge          float64 `json:"edge"`            // Value captured against the fair price, in Y.
	ArbEdge       float64 `json:"arb_edge"`        // Part of Edge coming from arbitrage trades (normally negative).
	RetailEdge    float64 `json:"retail_edge"`     // Part of Edge coming from retail trades.
	ArbVolumeY    float64 `json:"arb_volume_y"`    // Arbitrage notional in Y.
	RetailVolumeY float64 `json:"retail_volume_y"` // Retail notional in Y routed to this pool.
	ArbTrades     int     `json:"arb_trades"`
	RetailTrades  int     `json:"retail_trades"`
	AvgBidFeeBps  float64 `json:"avg_bid_fee_bps"` // Bid fee averaged over steps.
	AvgAskFeeBps  float64 `json:"avg_ask_fee_bps"` // Ask fee averaged over steps.
}

// SimulationResult is the outcome of one replica.
type SimulationResult struct {
	Index int    `json:"index"`
	Seed  uint64 `json:"seed"`

	// Market parameters actually used after variance was applied
	Sigma          float64 `json:"sigma"`
	RetailRate     float64 `json:"retail_rate"`
	RetailMeanSize float64 `json:"retail_mean_size"`

	Candidate          PoolMetrics `json:"candidate"`
	Normalizer         PoolMetrics `json:"normalizer"`
	FinalPrice         float64     `json:"final_price"`
	RealizedVolatility float64     `json:"realized_volatility"` // Per-step standard deviation of log returns.
	Outcome            Outcome     `json:"outcome"`
}
