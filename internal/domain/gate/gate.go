package gate

import (
	"math"
	"math/rand/v2"
	"time"
)

const DefaultBoostDelta = 0.03

type Config struct {
	BaseProbability  float64
	BoostProbability float64
	BoostStartHour   int
	BoostEndHour     int
	BoostDelta       float64
	Location         *time.Location
}

// Gate decides whether a meaningful message earns points.
type Gate struct {
	cfg  Config
	draw func() float64
}

func New(cfg Config) *Gate {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Gate{cfg: cfg, draw: rand.Float64}
}

// WithDraw replaces the uniform [0,1) source.
func (g *Gate) WithDraw(draw func() float64) *Gate {
	g.draw = draw
	return g
}

// InBoostWindow reports whether the local hour is in [start, end). A window
// with start > end wraps past midnight.
func (g *Gate) InBoostWindow(now time.Time) bool {
	hour := now.In(g.cfg.Location).Hour()
	start, end := g.cfg.BoostStartHour, g.cfg.BoostEndHour
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// Probability returns the chance of an award. The boost window overrides a
// personal boost instead of stacking with it.
func (g *Gate) Probability(now time.Time, boosted bool) float64 {
	if g.InBoostWindow(now) {
		return clamp(g.cfg.BoostProbability)
	}

	p := g.cfg.BaseProbability
	if boosted {
		p += g.cfg.BoostDelta
	}
	return clamp(p)
}

// Decision records the single draw made for a message.
type Decision struct {
	Probability float64
	Draw        float64
	Awarded     bool
}

// Roll draws exactly once.
func (g *Gate) Roll(now time.Time, boosted bool) Decision {
	p := g.Probability(now, boosted)
	d := g.draw()
	return Decision{Probability: p, Draw: d, Awarded: d < p}
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(p, 1))
}
