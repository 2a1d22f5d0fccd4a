package types

import "time"

// MatchSummary aggregates the replicas of a match.
type MatchSummary struct {
	Simulations int     `json:"simulations"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`

	// --- Edge Distribution (candidate) ---
	MeanEdge   float64 `json:"mean_edge"`
	StdEdge    float64 `json:"std_edge"`
	MedianEdge float64 `json:"median_edge"`
	P5Edge     float64 `json:"p5_edge"`
	P25Edge    float64 `json:"p25_edge"`
	P75Edge    float64 `json:"p75_edge"`
	P95Edge    float64 `json:"p95_edge"`

	MeanNormalizerEdge float64 `json:"mean_normalizer_edge"`
	MeanAdvantage      float64 `json:"mean_advantage"` // Mean of candidate edge minus normalizer edge.

	// --- Flow ---
	MeanArbVolume    float64 `json:"mean_arb_volume"`
	MeanRetailVolume float64 `json:"mean_retail_volume"`
	RetailShare      float64 `json:"retail_share"` // Candidate share of all retail notional.
	AvgBidFeeBps     float64 `json:"avg_bid_fee_bps"`
	AvgAskFeeBps     float64 `json:"avg_ask_fee_bps"`

	// --- Decomposition ---
	MeanArbEdge    float64 `json:"mean_arb_edge"`
	MeanRetailEdge float64 `json:"mean_retail_edge"`

	EdgeRetailCorrelation float64 `json:"edge_retail_correlation"`
	EdgeArbCorrelation    float64 `json:"edge_arb_correlation"`
}

// MatchResult is one complete, scored run of a candidate against the normalizer.
type MatchResult struct {
	RunID        string               `json:"run_id"`
	StrategyName string               `json:"strategy_name"`
	Parameters   ControllerParameters `json:"parameters"`
	Seed         uint64               `json:"seed"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
	Simulations  []SimulationResult   `json:"simulations"`
	Summary      MatchSummary         `json:"summary"`
}

// Edges returns the candidate edge of every replica in index order.
func (m MatchResult) Edges() []float64 {
	edges := make([]float64, len(m.Simulations))
	for i, sim := range m.Simulations {
		edges[i] = sim.Candidate.Edge
	}
	return edges
}

// RunRecord is a stored match run as returned by the results store.
type RunRecord struct {
	ID           int64        `json:"id"`
	RunID        string       `json:"run_id"`
	ParamsID     *int64       `json:"params_id,omitempty"`
	StrategyName string       `json:"strategy_name"`
	Seed         uint64       `json:"seed"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	Summary      MatchSummary `json:"summary"`
	Edges        []float64    `json:"edges"`
}

// SweepCandidate is one point of a parameter sweep with its scored summary.
type SweepCandidate struct {
	Label      string               `json:"label"`
	Parameters ControllerParameters `json:"parameters"`
	Summary    MatchSummary         `json:"summary"`
	Rank       int                  `json:"rank"`
}

// SweepGrid is the cartesian grid explored by a sweep. Empty axes keep the base parameter value.
type SweepGrid struct {
	BaseFeesBps    []uint64   `json:"base_fees_bps" toml:"base_fees_bps"`
	SpikeLinear    []Rational `json:"spike_linear" toml:"spike_linear"`
	SpikeQuadratic []Rational `json:"spike_quadratic" toml:"spike_quadratic"`
	DecayRatios    []Rational `json:"decay_ratios" toml:"decay_ratios"`
	Phased         bool       `json:"phased" toml:"phased"` // Tune spike, then decay, then base instead of the full product.
	Top            int        `json:"top" toml:"top"`       // Number of ranked candidates to keep, 0 for all.
}
