// Package scoring converts raw activity inputs into mintable reward
// amounts. It is pure: no I/O, no clock, no randomness. All arithmetic
// runs on shopspring/decimal so the result is bit-identical on every
// host; the score is rounded half away from zero at two decimal places
// and the mint amount is its floor.
package scoring

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownKind indicates an action kind without a base reward.
var ErrUnknownKind = errors.New("unknown action kind")

// Bounds on the per-dimension multipliers. Quality and integrity model
// moderation outcomes in [0, 1.5]; impact and unity are open-ended but
// clamped to a sane ceiling so a single action cannot mint unbounded value.
const (
	QualityMax   = 1.5
	IntegrityMax = 1.5
	ImpactMax    = 100
	UnityMax     = 100
)

// DefaultBaseRewards maps each action kind to its base reward in display
// units. Values are decimal strings so configuration overrides stay exact.
var DefaultBaseRewards = map[string]string{
	"post":           "10",
	"comment":        "4",
	"reaction":       "1",
	"share":          "6",
	"friend":         "8",
	"livestream":     "20",
	"new_user_bonus": "50",
	"donate":         "15",
}

// Inputs are the per-action multipliers fed into the formula.
type Inputs struct {
	Quality   float64
	Impact    float64
	Integrity float64
	Unity     float64
}

// Result is a scored action: the exact two-decimal score and the integer
// amount that may be minted for it.
type Result struct {
	BaseReward decimal.Decimal
	Score      decimal.Decimal
	MintAmount int64
}

// Engine evaluates the reward formula against a fixed base-reward table.
type Engine struct {
	base map[string]decimal.Decimal
}

// NewEngine builds an engine from a kind -> base reward table. Passing
// nil uses DefaultBaseRewards.
func NewEngine(baseRewards map[string]string) (*Engine, error) {
	if baseRewards == nil {
		baseRewards = DefaultBaseRewards
	}

	base := make(map[string]decimal.Decimal, len(baseRewards))
	for kind, raw := range baseRewards {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base reward for %q: %w", kind, err)
		}
		if value.IsNegative() {
			return nil, fmt.Errorf("base reward for %q must not be negative", kind)
		}
		base[kind] = value
	}

	return &Engine{base: base}, nil
}

// Score computes score = round(base × quality × impact × integrity × unity, 2)
// and mintAmount = floor(score). Multipliers are clamped into their bounds
// before evaluation; a negative multiplier counts as zero.
func (e *Engine) Score(kind string, in Inputs) (Result, error) {
	base, ok := e.base[kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	score := base.
		Mul(clamp(in.Quality, QualityMax)).
		Mul(clamp(in.Impact, ImpactMax)).
		Mul(clamp(in.Integrity, IntegrityMax)).
		Mul(clamp(in.Unity, UnityMax)).
		Round(2)

	return Result{
		BaseReward: base,
		Score:      score,
		MintAmount: score.Floor().IntPart(),
	}, nil
}

// BaseReward returns the configured base reward for a kind.
func (e *Engine) BaseReward(kind string) (decimal.Decimal, error) {
	base, ok := e.base[kind]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return base, nil
}

func clamp(value, max float64) decimal.Decimal {
	if value < 0 {
		return decimal.Zero
	}
	if value > max {
		value = max
	}
	return decimal.NewFromFloat(value)
}
