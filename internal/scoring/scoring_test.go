package scoring

import (
	"testing"
)

func score(v float64) *float64 { return &v }

func TestAverage(t *testing.T) {
	got := Average([]*float64{score(80), score(60)})
	if got == nil || *got != 70.00 {
		t.Fatalf("expected 70.00, got %v", got)
	}
}

func TestAverageRoundsToTwoDecimals(t *testing.T) {
	got := Average([]*float64{score(1), score(1), score(0)})
	if got == nil || *got != 0.67 {
		t.Fatalf("expected 0.67, got %v", got)
	}
}

func TestAverageSkipsNilScores(t *testing.T) {
	got := Average([]*float64{score(50), nil, score(100)})
	if got == nil || *got != 75.00 {
		t.Fatalf("expected 75.00, got %v", got)
	}
}

func TestAverageEmptyIsNil(t *testing.T) {
	if got := Average(nil); got != nil {
		t.Fatalf("expected nil for no links, got %v", *got)
	}
	if got := Average([]*float64{nil, nil}); got != nil {
		t.Fatalf("expected nil for unscored links, got %v", *got)
	}
}
