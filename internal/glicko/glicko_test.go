package glicko

import (
	"errors"
	"math"
	"testing"

	glicko2 "github.com/zelenin/go-glicko2"
)

// The worked example from Glickman's paper: a 1500/200/0.06 player beating a
// (1400, 30), then losing to a (1550, 100) and a (1700, 300).
var paperOpponents = []Opponent{
	{Rating: 1400, Deviation: 30, Score: 1},
	{Rating: 1550, Deviation: 100, Score: 0},
	{Rating: 1700, Deviation: 300, Score: 0},
}

func TestPaperExample(t *testing.T) {
	got, err := Update(Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}, paperOpponents)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(got.Rating-1464.06) > 0.01 {
		t.Errorf("rating: expected ~1464.06 got %f", got.Rating)
	}
	if math.Abs(got.Deviation-151.52) > 0.01 {
		t.Errorf("deviation: expected ~151.52 got %f", got.Deviation)
	}
	if math.Abs(got.Volatility-0.05999) > 0.0001 {
		t.Errorf("volatility: expected ~0.05999 got %f", got.Volatility)
	}
}

// The same outcomes fed to the reference implementation must land on the
// same values.
func TestAgainstReferenceImplementation(t *testing.T) {
	p := glicko2.NewPlayer(glicko2.NewRating(1500, 200, 0.06))
	o1 := glicko2.NewPlayer(glicko2.NewRating(1400, 30, 0.06))
	o2 := glicko2.NewPlayer(glicko2.NewRating(1550, 100, 0.06))
	o3 := glicko2.NewPlayer(glicko2.NewRating(1700, 300, 0.06))

	period := glicko2.NewRatingPeriod()
	period.AddMatch(p, o1, glicko2.MATCH_RESULT_WIN)
	period.AddMatch(p, o2, glicko2.MATCH_RESULT_LOSS)
	period.AddMatch(p, o3, glicko2.MATCH_RESULT_LOSS)
	period.Calculate()

	got, err := Update(Rating{Rating: 1500, Deviation: 200, Volatility: 0.06}, paperOpponents)
	if err != nil {
		t.Fatal(err)
	}

	ref := p.Rating()
	if math.Abs(got.Rating-ref.R()) > 0.001 {
		t.Errorf("rating: reference %f got %f", ref.R(), got.Rating)
	}
	if math.Abs(got.Deviation-ref.Rd()) > 0.001 {
		t.Errorf("deviation: reference %f got %f", ref.Rd(), got.Deviation)
	}
	if math.Abs(got.Volatility-ref.Sigma()) > 0.0001 {
		t.Errorf("volatility: reference %f got %f", ref.Sigma(), got.Volatility)
	}
}

func TestUpdateIsDeterministic(t *testing.T) {
	r := Rating{Rating: 1400, Deviation: 350, Volatility: 0.06}

	first, err := Update(r, paperOpponents)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		again, err := Update(r, paperOpponents)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run #%d: expected %+v got %+v", i, first, again)
		}
	}
}

// A win against a stronger opponent must gain more than a win against a
// weaker one, and a single outcome must always shrink the deviation.
func TestUpdateDirection(t *testing.T) {
	r := NewRating()

	vsWeak, err := Update(r, []Opponent{{Rating: 1200, Deviation: 100, Score: 1}})
	if err != nil {
		t.Fatal(err)
	}
	vsStrong, err := Update(r, []Opponent{{Rating: 1600, Deviation: 100, Score: 1}})
	if err != nil {
		t.Fatal(err)
	}

	if vsWeak.Rating <= r.Rating {
		t.Errorf("winning must raise the rating, got %f", vsWeak.Rating)
	}
	if vsStrong.Rating <= vsWeak.Rating {
		t.Errorf("beating 1600 (%f) must beat beating 1200 (%f)", vsStrong.Rating, vsWeak.Rating)
	}
	if vsWeak.Deviation >= r.Deviation || vsStrong.Deviation >= r.Deviation {
		t.Error("playing a match must reduce the deviation")
	}
}

// Mirror updates of a draw between identical players must stay symmetric.
func TestDrawSymmetry(t *testing.T) {
	a := Rating{Rating: 1450, Deviation: 120, Volatility: 0.06}
	b := Rating{Rating: 1450, Deviation: 120, Volatility: 0.06}

	newA, err := Update(a, []Opponent{{Rating: b.Rating, Deviation: b.Deviation, Score: 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	newB, err := Update(b, []Opponent{{Rating: a.Rating, Deviation: a.Deviation, Score: 0.5}})
	if err != nil {
		t.Fatal(err)
	}

	if newA != newB {
		t.Errorf("expected symmetric updates, got %+v and %+v", newA, newB)
	}
	if math.Abs(newA.Rating-1450) > 1e-9 {
		t.Errorf("a draw between equals must not move the rating, got %f", newA.Rating)
	}
}

func TestNoOutcomesIsANoOp(t *testing.T) {
	r := Rating{Rating: 1512.3, Deviation: 87.6, Volatility: 0.0601}

	got, err := Update(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != r {
		t.Errorf("expected %+v got %+v", r, got)
	}
}

func TestGarbageInputFailsInsteadOfDiverging(t *testing.T) {
	_, err := Update(
		Rating{Rating: math.NaN(), Deviation: 200, Volatility: 0.06},
		[]Opponent{{Rating: 1400, Deviation: 30, Score: 1}},
	)
	if !errors.Is(err, ErrNonConvergent) {
		t.Errorf("expected ErrNonConvergent, got %v", err)
	}
}

func TestProvisionalCutoff(t *testing.T) {
	cases := []struct {
		deviation float64
		expected  bool
	}{
		{350, true},
		{250.1, true},
		{250, false},
		{80, false},
	}

	for k, v := range cases {
		r := Rating{Rating: 1400, Deviation: v.deviation, Volatility: 0.06}
		if r.Provisional() != v.expected {
			t.Errorf("case #%d: expected Provisional() == %t for RD %f", k, v.expected, v.deviation)
		}
	}
}
