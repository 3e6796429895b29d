package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/navfolio/internal/models"
)

var (
	// ErrNoReturn is the parent of every reason a return cannot be computed.
	ErrNoReturn = errors.New("annualised return unavailable")
	// ErrInsufficientCashFlows is returned for fewer than two non-zero flows.
	ErrInsufficientCashFlows = fmt.Errorf("%w: need at least two non-zero cash flows", ErrNoReturn)
	// ErrNoSignChange is returned when every flow is an inflow or every flow is an outflow.
	ErrNoSignChange = fmt.Errorf("%w: cash flows never change sign", ErrNoReturn)
	// ErrNonConvergent is returned when neither Newton nor bisection finds a root.
	ErrNonConvergent = fmt.Errorf("%w: solver did not converge", ErrNoReturn)
)

const (
	daysPerYear = 365.0

	xirrTolerance     = 1e-6
	newtonMaxIter     = 100
	bisectionMaxIter  = 200
	xirrMinRate       = -0.999
	xirrMaxRate       = 10.0
	defaultXIRRGuess  = 0.1
	hoursPerDay       = 24.0
	derivativeEpsilon = 1e-12
)

// cashFlow is one dated amount on the solver's time axis.
type cashFlow struct {
	years  float64
	amount float64
}

// SolveXIRR finds the annual rate r with
//
//	sum(amount_i / (1 + r)^(days_i / 365)) = 0
//
// where days_i counts from the earliest flow. Newton-Raphson runs first,
// seeded from the simple return; bisection over [-0.999, 10] is the fallback.
// The returned rate is a fraction (0.2 is 20%). Errors wrap ErrNoReturn.
func SolveXIRR(events []models.CashFlowEvent) (float64, error) {
	var dated []models.CashFlowEvent
	for _, e := range events {
		if e.Amount == 0 || math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
			continue
		}
		dated = append(dated, e)
	}
	if len(dated) < 2 {
		return 0, ErrInsufficientCashFlows
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].OccurredAt.Before(dated[j].OccurredAt)
	})

	hasNeg, hasPos := false, false
	for _, e := range dated {
		if e.IsInflow() {
			hasPos = true
		} else {
			hasNeg = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, ErrNoSignChange
	}

	flows := toYearFractions(dated)

	if rate, ok := newtonXIRR(flows, initialGuess(flows)); ok {
		return rate, nil
	}
	if rate, ok := bisectXIRR(flows); ok {
		return rate, nil
	}
	return 0, ErrNonConvergent
}

func toYearFractions(events []models.CashFlowEvent) []cashFlow {
	base := events[0].OccurredAt
	flows := make([]cashFlow, len(events))
	for i, e := range events {
		flows[i] = cashFlow{
			years:  yearsBetween(base, e.OccurredAt),
			amount: e.Amount,
		}
	}
	return flows
}

func yearsBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay / daysPerYear
}

// initialGuess uses the simple return when it lies inside the solver bracket.
func initialGuess(flows []cashFlow) float64 {
	invested, received := 0.0, 0.0
	for _, f := range flows {
		if f.amount < 0 {
			invested -= f.amount
		} else {
			received += f.amount
		}
	}
	if invested <= 0 {
		return defaultXIRRGuess
	}
	simple := received/invested - 1
	if simple > xirrMinRate && simple < xirrMaxRate {
		return simple
	}
	return defaultXIRRGuess
}

func npv(flows []cashFlow, rate float64) float64 {
	base := 1 + rate
	if base <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, f := range flows {
		sum += f.amount / math.Pow(base, f.years)
	}
	return sum
}

func npvDerivative(flows []cashFlow, rate float64) float64 {
	base := 1 + rate
	d := 0.0
	for _, f := range flows {
		if f.years == 0 {
			continue
		}
		d -= f.years * f.amount / math.Pow(base, f.years+1)
	}
	return d
}

func newtonXIRR(flows []cashFlow, guess float64) (float64, bool) {
	rate := guess
	for iter := 0; iter < newtonMaxIter; iter++ {
		v := npv(flows, rate)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		if math.Abs(v) < xirrTolerance {
			return rate, true
		}

		d := npvDerivative(flows, rate)
		if math.Abs(d) < derivativeEpsilon {
			return 0, false
		}

		next := rate - v/d
		if next < xirrMinRate {
			next = xirrMinRate
		}
		if next > xirrMaxRate {
			next = xirrMaxRate
		}
		if math.Abs(next-rate) < xirrTolerance*xirrTolerance && math.Abs(npv(flows, next)) < xirrTolerance {
			return next, true
		}
		rate = next
	}
	return 0, false
}

func bisectXIRR(flows []cashFlow) (float64, bool) {
	lo, hi := xirrMinRate, xirrMaxRate
	npvLo, npvHi := npv(flows, lo), npv(flows, hi)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || math.IsInf(npvLo, 0) || math.IsInf(npvHi, 0) {
		return 0, false
	}
	if npvLo*npvHi > 0 {
		return 0, false
	}

	for iter := 0; iter < bisectionMaxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npv(flows, mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < xirrTolerance || (hi-lo)/2 < xirrTolerance*xirrTolerance {
			return mid, true
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}
	return 0, false
}
