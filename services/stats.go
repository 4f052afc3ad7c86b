package services

import (
	"math"

	"proppool/models"
)

// PropPickStats is the pick-popularity breakdown for a single prop.
// OptionCounts is parallel to the prop's options and only counts in-range
// selections; TotalPicks counts every pick, including stale out-of-range ones
// left behind by option edits. CorrectCount is nil while the prop is
// unresolved.
type PropPickStats struct {
	OptionCounts       []int `json:"option_counts"`
	TotalPicks         int   `json:"total_picks"`
	MostPopularIndex   int   `json:"most_popular_index"`
	MostPopularPercent int   `json:"most_popular_percent"`
	CorrectCount       *int  `json:"correct_count"`
}

type AgreedHighlight struct {
	Question string `json:"question"`
	Option   string `json:"option"`
	Percent  int    `json:"percent"`
}

type DivisiveHighlight struct {
	Question string `json:"question"`
	Percent  int    `json:"percent"`
}

type UpsetHighlight struct {
	Question       string `json:"question"`
	PopularOption  string `json:"popular_option"`
	CorrectOption  string `json:"correct_option"`
	PopularPercent int    `json:"popular_percent"`
}

// PoolPickSummary holds the leaderboard highlight cards. Each field is nil
// when no prop qualifies for it.
type PoolPickSummary struct {
	MostAgreed   *AgreedHighlight   `json:"most_agreed"`
	MostDivisive *DivisiveHighlight `json:"most_divisive"`
	BiggestUpset *UpsetHighlight    `json:"biggest_upset"`
}

// ComputePerPropStats aggregates a pool's picks per prop. Pure function over
// the supplied rows; props must have their options preloaded in order. Picks
// referencing props outside the supplied list are ignored.
func ComputePerPropStats(picks []models.Pick, props []models.Prop) map[uint]PropPickStats {
	stats := make(map[uint]PropPickStats, len(props))

	counts := make(map[uint][]int, len(props))
	totals := make(map[uint]int, len(props))
	for i := range props {
		counts[props[i].ID] = make([]int, len(props[i].Options))
	}

	for _, pick := range picks {
		optionCounts, ok := counts[pick.PropID]
		if !ok {
			continue
		}
		totals[pick.PropID]++
		if pick.SelectedOptionIndex >= 0 && pick.SelectedOptionIndex < len(optionCounts) {
			optionCounts[pick.SelectedOptionIndex]++
		}
	}

	for _, prop := range props {
		optionCounts := counts[prop.ID]
		total := totals[prop.ID]

		// Highest count wins; ties go to the lowest index.
		popular := 0
		for i, count := range optionCounts {
			if count > optionCounts[popular] {
				popular = i
			}
		}

		percent := 0
		if total > 0 && len(optionCounts) > 0 {
			percent = int(math.Round(100 * float64(optionCounts[popular]) / float64(total)))
		}

		var correctCount *int
		if prop.CorrectOptionIndex != nil && *prop.CorrectOptionIndex >= 0 && *prop.CorrectOptionIndex < len(optionCounts) {
			n := optionCounts[*prop.CorrectOptionIndex]
			correctCount = &n
		}

		stats[prop.ID] = PropPickStats{
			OptionCounts:       optionCounts,
			TotalPicks:         total,
			MostPopularIndex:   popular,
			MostPopularPercent: percent,
			CorrectCount:       correctCount,
		}
	}

	return stats
}

// ComputePoolSummary derives the highlight cards from per-prop stats. Props
// are scanned in the supplied order and the first prop to reach the best
// value keeps it, so the output is deterministic for a deterministic input
// order.
func ComputePoolSummary(stats map[uint]PropPickStats, props []models.Prop) PoolPickSummary {
	var summary PoolPickSummary

	for i := range props {
		prop := &props[i]
		s, ok := stats[prop.ID]
		if !ok || s.TotalPicks == 0 {
			continue
		}

		popularText := ""
		if s.MostPopularIndex < len(prop.Options) {
			popularText = prop.Options[s.MostPopularIndex].Text
		}

		if summary.MostAgreed == nil || s.MostPopularPercent > summary.MostAgreed.Percent {
			summary.MostAgreed = &AgreedHighlight{
				Question: prop.Question,
				Option:   popularText,
				Percent:  s.MostPopularPercent,
			}
		}

		if summary.MostDivisive == nil || s.MostPopularPercent < summary.MostDivisive.Percent {
			summary.MostDivisive = &DivisiveHighlight{
				Question: prop.Question,
				Percent:  s.MostPopularPercent,
			}
		}

		// Upsets only exist on resolved props where the crowd favourite
		// was not the answer; a correct favourite is excluded outright
		// rather than reported as a zero-percent upset.
		if prop.CorrectOptionIndex == nil || s.MostPopularIndex == *prop.CorrectOptionIndex {
			continue
		}
		correctText := ""
		if *prop.CorrectOptionIndex < len(prop.Options) {
			correctText = prop.Options[*prop.CorrectOptionIndex].Text
		}
		if summary.BiggestUpset == nil || s.MostPopularPercent > summary.BiggestUpset.PopularPercent {
			summary.BiggestUpset = &UpsetHighlight{
				Question:       prop.Question,
				PopularOption:  popularText,
				CorrectOption:  correctText,
				PopularPercent: s.MostPopularPercent,
			}
		}
	}

	return summary
}
