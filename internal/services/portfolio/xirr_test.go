package portfolio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bobmcallan/navfolio/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func flow(amount float64, at time.Time) models.CashFlowEvent {
	return models.CashFlowEvent{Amount: amount, OccurredAt: at}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSolveXIRR_OneYearTwentyPercent(t *testing.T) {
	// 2023 is not a leap year: exactly 365 days.
	rate, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1000, day(2023, 1, 1)),
		flow(1200, day(2024, 1, 1)),
	})
	if err != nil {
		t.Fatalf("SolveXIRR() error = %v", err)
	}
	if !approxEqual(rate, 0.20, 1e-6) {
		t.Errorf("rate = %.8f, want 0.20", rate)
	}
}

func TestSolveXIRR_HalfYearAnnualises(t *testing.T) {
	// 5% over 181 days
	rate, err := SolveXIRR([]models.CashFlowEvent{
		flow(-10000, day(2023, 1, 1)),
		flow(10500, day(2023, 7, 1)),
	})
	if err != nil {
		t.Fatalf("SolveXIRR() error = %v", err)
	}
	want := math.Pow(1.05, 365.0/181.0) - 1
	if !approxEqual(rate, want, 1e-5) {
		t.Errorf("rate = %.6f, want %.6f", rate, want)
	}
}

func TestSolveXIRR_Loss(t *testing.T) {
	rate, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1000, day(2023, 1, 1)),
		flow(800, day(2024, 1, 1)),
	})
	if err != nil {
		t.Fatalf("SolveXIRR() error = %v", err)
	}
	if !approxEqual(rate, -0.20, 1e-6) {
		t.Errorf("rate = %.6f, want -0.20", rate)
	}
}

func TestSolveXIRR_InputOrderIrrelevant(t *testing.T) {
	ordered := []models.CashFlowEvent{
		flow(-1000, day(2022, 1, 1)),
		flow(-500, day(2022, 7, 1)),
		flow(300, day(2023, 3, 1)),
		flow(1600, day(2024, 1, 1)),
	}
	shuffled := []models.CashFlowEvent{ordered[3], ordered[1], ordered[0], ordered[2]}

	a, errA := SolveXIRR(ordered)
	b, errB := SolveXIRR(shuffled)
	if errA != nil || errB != nil {
		t.Fatalf("errors = %v, %v", errA, errB)
	}
	if !approxEqual(a, b, 1e-9) {
		t.Errorf("ordered = %.8f, shuffled = %.8f", a, b)
	}
}

func TestSolveXIRR_RootSatisfiesNPV(t *testing.T) {
	flows := []models.CashFlowEvent{
		flow(-2500, day(2020, 3, 15)),
		flow(-1000, day(2021, 6, 1)),
		flow(400, day(2022, 2, 1)),
		flow(-750, day(2022, 11, 20)),
		flow(5200, day(2024, 12, 31)),
	}
	rate, err := SolveXIRR(flows)
	if err != nil {
		t.Fatalf("SolveXIRR() error = %v", err)
	}

	base := flows[0].OccurredAt
	sum := 0.0
	for _, f := range flows {
		sum += f.Amount / math.Pow(1+rate, yearsBetween(base, f.OccurredAt))
	}
	if math.Abs(sum) > 1e-4 {
		t.Errorf("NPV at rate %.6f = %.8f, want ~0", rate, sum)
	}
}

func TestSolveXIRR_AllOutflows(t *testing.T) {
	_, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1000, day(2023, 1, 1)),
		flow(-500, day(2023, 6, 1)),
	})
	if !errors.Is(err, ErrNoSignChange) {
		t.Errorf("err = %v, want ErrNoSignChange", err)
	}
	if !errors.Is(err, ErrNoReturn) {
		t.Errorf("err = %v, want to wrap ErrNoReturn", err)
	}
}

func TestSolveXIRR_AllInflows(t *testing.T) {
	_, err := SolveXIRR([]models.CashFlowEvent{
		flow(1000, day(2023, 1, 1)),
		flow(500, day(2023, 6, 1)),
	})
	if !errors.Is(err, ErrNoSignChange) {
		t.Errorf("err = %v, want ErrNoSignChange", err)
	}
}

func TestSolveXIRR_SingleFlow(t *testing.T) {
	_, err := SolveXIRR([]models.CashFlowEvent{flow(-1000, day(2023, 1, 1))})
	if !errors.Is(err, ErrInsufficientCashFlows) {
		t.Errorf("err = %v, want ErrInsufficientCashFlows", err)
	}
}

func TestSolveXIRR_ZeroFlowsIgnored(t *testing.T) {
	_, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1000, day(2023, 1, 1)),
		flow(0, day(2023, 6, 1)),
	})
	if !errors.Is(err, ErrInsufficientCashFlows) {
		t.Errorf("err = %v, want ErrInsufficientCashFlows", err)
	}

	if _, err := SolveXIRR(nil); !errors.Is(err, ErrInsufficientCashFlows) {
		t.Errorf("nil flows: err = %v, want ErrInsufficientCashFlows", err)
	}
}

func TestSolveXIRR_SameDayFlowsHaveNoRoot(t *testing.T) {
	// Every flow at t=0: NPV is constant and non-zero for any rate.
	_, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1000, day(2023, 1, 1)),
		flow(1200, day(2023, 1, 1)),
	})
	if !errors.Is(err, ErrNonConvergent) {
		t.Errorf("err = %v, want ErrNonConvergent", err)
	}
}

func TestSolveXIRR_LargeGainInsideBracket(t *testing.T) {
	// 500% in one year
	rate, err := SolveXIRR([]models.CashFlowEvent{
		flow(-100, day(2023, 1, 1)),
		flow(600, day(2024, 1, 1)),
	})
	if err != nil {
		t.Fatalf("SolveXIRR() error = %v", err)
	}
	if !approxEqual(rate, 5.0, 1e-4) {
		t.Errorf("rate = %.6f, want 5.0", rate)
	}
}

func TestSolveXIRR_RateAboveBracketIsUnavailable(t *testing.T) {
	// 10000% in one year: no root inside [-0.999, 10].
	_, err := SolveXIRR([]models.CashFlowEvent{
		flow(-1, day(2023, 1, 1)),
		flow(101, day(2024, 1, 1)),
	})
	if !errors.Is(err, ErrNoReturn) {
		t.Errorf("err = %v, want ErrNoReturn", err)
	}
}
