package simulations

import (
	"math"
	"math/rand/v2"
)

// PriceProcess is a geometric Brownian motion for the fair price of X in Y.
type PriceProcess struct {
	price float64
	mu    float64
	sigma float64
	dt    float64
	rng   *rand.Rand
}

// NewPriceProcess starts the path at initial.
func NewPriceProcess(initial, mu, sigma, dt float64, rng *rand.Rand) *PriceProcess {
	return &PriceProcess{price: initial, mu: mu, sigma: sigma, dt: dt, rng: rng}
}

// Price returns the current fair price.
func (g *PriceProcess) Price() float64 { return g.price }

// Step advances the path by one dt and returns the new price.
func (g *PriceProcess) Step() float64 {
	drift := (g.mu - 0.5*g.sigma*g.sigma) * g.dt
	shock := g.sigma * math.Sqrt(g.dt) * g.rng.NormFloat64()
	g.price *= math.Exp(drift + shock)
	return g.price
}

// RetailOrder is one uninformed order. Size is the notional in Y.
type RetailOrder struct {
	BuyX bool
	Size float64
}

// RetailFlow draws Poisson arrivals of log-normally sized orders.
type RetailFlow struct {
	rate     float64
	meanSize float64
	sizeSig  float64
	buyProb  float64
	rng      *rand.Rand
}

// NewRetailFlow builds the order generator. The size distribution is scaled so its mean is meanSize.
func NewRetailFlow(rate, meanSize, sizeSigma, buyProb float64, rng *rand.Rand) *RetailFlow {
	return &RetailFlow{rate: rate, meanSize: meanSize, sizeSig: sizeSigma, buyProb: buyProb, rng: rng}
}

// Orders returns the orders arriving in one step.
func (r *RetailFlow) Orders() []RetailOrder {
	n := poisson(r.rng, r.rate)
	if n == 0 {
		return nil
	}
	orders := make([]RetailOrder, n)
	for i := range orders {
		size := r.meanSize * math.Exp(r.sizeSig*r.rng.NormFloat64()-0.5*r.sizeSig*r.sizeSig)
		orders[i] = RetailOrder{BuyX: r.rng.Float64() < r.buyProb, Size: size}
	}
	return orders
}

// poisson uses Knuth's multiplication method, fine for the small rates used per step.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
