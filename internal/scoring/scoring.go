// Package scoring computes the derived project score from its indicator
// links.
package scoring

import (
	"math"
)

// Average returns the mean of the non-nil scores rounded to two decimal
// places, or nil when no score is set. A project with links but no scored
// links has no score, not a zero score.
func Average(scores []*float64) *float64 {
	var sum float64
	var count int
	for _, s := range scores {
		if s == nil {
			continue
		}
		sum += *s
		count++
	}
	if count == 0 {
		return nil
	}
	mean := math.Round(sum/float64(count)*100) / 100
	return &mean
}
