// Package glicko implements the Glicko-2 rating system as described in
// Mark E. Glickman's paper (https://www.glicko.net/glicko/glicko2.pdf).
//
// Variables follow the paper's naming: mu/phi are the rating and deviation
// on the internal scale, sigma is the volatility, tau constrains how much
// the volatility can move in a single update, g weighs down opponents with
// uncertain ratings, and E is the expected score.
//
// Unlike the paper, updates are not batched per rating period: the ladder
// applies every confirmed match as an isolated one-on-one update. The slice
// form of Update exists so the canonical multi-opponent example from the
// paper can be verified against the same code path.
package glicko

import (
	"errors"
	"math"
)

const (
	// Scale converts between the display scale and the internal mu/phi scale.
	Scale = 173.7178

	// Defaults for a freshly registered player.
	BaseRating     = 1400.0
	BaseDeviation  = 350.0
	BaseVolatility = 0.06

	// ProvisionalDeviation is the deviation above which a rating is flagged
	// as unreliable wherever it is displayed. Display rule only, the math
	// does not care.
	ProvisionalDeviation = 250.0

	tau           = 0.5
	epsilon       = 1e-6
	maxIterations = 100
)

// ErrNonConvergent is returned when the volatility search exceeds its
// iteration bound. This must never happen for valid inputs, it is a safety
// net against numeric pathologies.
var ErrNonConvergent = errors.New("glicko: volatility iteration did not converge")

// Rating is a player's strength estimate on the display scale.
type Rating struct {
	Rating     float64
	Deviation  float64
	Volatility float64
}

// NewRating returns the rating assigned to a player who never played.
func NewRating() Rating {
	return Rating{
		Rating:     BaseRating,
		Deviation:  BaseDeviation,
		Volatility: BaseVolatility,
	}
}

// Provisional reports whether the rating is too uncertain to be trusted for
// display purposes.
func (r Rating) Provisional() bool {
	return r.Deviation > ProvisionalDeviation
}

// Opponent is one game outcome against a single opponent, with the
// opponent's pre-match rating and deviation and the score from the updated
// player's perspective (1 win, 0.5 draw, 0 loss).
type Opponent struct {
	Rating    float64
	Deviation float64
	Score     float64
}

// Update returns the player's new rating after the given outcomes.
// Opponent values must be pre-match snapshots: when both sides of a match
// are updated, neither update may see the other side's result.
func Update(r Rating, opponents []Opponent) (Rating, error) {
	if len(opponents) == 0 {
		return r, nil
	}

	mu := (r.Rating - BaseRating) / Scale
	phi := r.Deviation / Scale

	// Steps 2-4: estimated variance and improvement from the outcomes.
	var vInv, improvement float64
	for _, o := range opponents {
		muJ := (o.Rating - BaseRating) / Scale
		phiJ := o.Deviation / Scale
		gJ := g(phiJ)
		eJ := expectedScore(mu, muJ, gJ)

		// E is strictly within (0, 1) for all finite ratings, this can only
		// trip on garbage inputs (NaN, infinite deviations).
		if eJ*(1-eJ) <= 0 || math.IsNaN(eJ) {
			return Rating{}, ErrNonConvergent
		}

		vInv += gJ * gJ * eJ * (1 - eJ)
		improvement += gJ * (o.Score - eJ)
	}

	v := 1 / vInv
	delta := v * improvement

	sigma, err := nextVolatility(r.Volatility, delta, phi, v)
	if err != nil {
		return Rating{}, err
	}

	// Steps 6-7: shift phi by the new volatility, then shrink it by the
	// information gained from the outcomes.
	phiStar := math.Sqrt(phi*phi + sigma*sigma)
	phiNew := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muNew := mu + phiNew*phiNew*improvement

	return Rating{
		Rating:     muNew*Scale + BaseRating,
		Deviation:  phiNew * Scale,
		Volatility: sigma,
	}, nil
}

func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

func expectedScore(mu, muJ, gJ float64) float64 {
	return 1 / (1 + math.Exp(-gJ*(mu-muJ)))
}

// nextVolatility solves for the new volatility with the Illinois variant of
// regula falsi (paper step 5).
func nextVolatility(sigma, delta, phi, v float64) (float64, error) {
	a := math.Log(sigma * sigma)
	f := func(x float64) float64 {
		ex := math.Exp(x)
		num := ex * (delta*delta - phi*phi - v - ex)
		den := 2 * (phi*phi + v + ex) * (phi*phi + v + ex)
		return num/den - (x-a)/(tau*tau)
	}

	// Bracket a sign change. The paper guarantees one exists below a; the
	// iteration cap keeps us from walking forever on pathological inputs
	// instead of diverging.
	A := a
	var B float64
	if delta*delta > phi*phi+v {
		B = math.Log(delta*delta - phi*phi - v)
	} else {
		k := 1
		for ; k <= maxIterations; k++ {
			if f(a-float64(k)*tau) >= 0 {
				break
			}
		}
		if k > maxIterations {
			return 0, ErrNonConvergent
		}
		B = a - float64(k)*tau
	}

	fA, fB := f(A), f(B)
	for i := 0; math.Abs(B-A) > epsilon; i++ {
		if i >= maxIterations {
			return 0, ErrNonConvergent
		}

		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)

		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
	}

	return math.Exp(A / 2), nil
}
