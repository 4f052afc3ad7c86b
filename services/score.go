package services

import "proppool/models"

// ScorePick returns the points a single pick earns against its prop's current
// resolution. Voided props and out-of-range selections never score; an
// unresolved prop scores zero (callers only write ledger values on resolve or
// void, so the nil-until-resolved state of Pick.PointsEarned is preserved by
// not calling this before then).
func ScorePick(pick *models.Pick, prop *models.Prop) int {
	if prop.Status == models.PropStatusVoided || prop.CorrectOptionIndex == nil {
		return 0
	}
	if pick.SelectedOptionIndex < 0 || pick.SelectedOptionIndex >= len(prop.Options) {
		return 0
	}
	if pick.SelectedOptionIndex == *prop.CorrectOptionIndex {
		return prop.PointValue
	}
	return 0
}

// RecomputePlayerTotal sums PointsEarned over a player's full pick set,
// treating nil as zero. Totals are always rebuilt from the pick rows loaded
// in the same transaction that changed them; incrementing the previous total
// drifts under voids, re-resolutions and prop deletions.
func RecomputePlayerTotal(picks []models.Pick) int {
	total := 0
	for _, pick := range picks {
		if pick.PointsEarned != nil {
			total += *pick.PointsEarned
		}
	}
	return total
}
