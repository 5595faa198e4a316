// Package hotspot computes the Getis-Ord Gi* statistic over point tables
// and classifies each point into a significance tier.
package hotspot

// Significance tier labels attached to each scored point.
const (
	BinHotSpot99      = "Hot Spot 99%"
	BinHotSpot95      = "Hot Spot 95%"
	BinHotSpot90      = "Hot Spot 90%"
	BinColdSpot99     = "Cold Spot 99%"
	BinColdSpot95     = "Cold Spot 95%"
	BinColdSpot90     = "Cold Spot 90%"
	BinNotSignificant = "Not Significant"
)

// Two-tailed p-value cutoffs for the confidence tiers.
const (
	alpha99 = 0.01
	alpha95 = 0.05
	alpha90 = 0.10
)

// Classify returns the significance tier for a z-score and its two-tailed
// p-value. The tightest passing cutoff wins; the sign of z picks hot
// versus cold.
// Rules:
//   - p <= 0.01: Hot Spot 99% (z > 0) or Cold Spot 99%
//   - p <= 0.05: Hot Spot 95% (z > 0) or Cold Spot 95%
//   - p <= 0.10: Hot Spot 90% (z > 0) or Cold Spot 90%
//   - otherwise: Not Significant
func Classify(z, p float64) string {
	switch {
	case p <= alpha99:
		if z > 0 {
			return BinHotSpot99
		}
		return BinColdSpot99
	case p <= alpha95:
		if z > 0 {
			return BinHotSpot95
		}
		return BinColdSpot95
	case p <= alpha90:
		if z > 0 {
			return BinHotSpot90
		}
		return BinColdSpot90
	default:
		return BinNotSignificant
	}
}
