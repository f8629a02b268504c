package explore

import "math"

// saturation expresses how crowded a keyword already is, 0-100, on the same
// logarithmic view scale the trend score uses.
func saturation(totalViews int64) float64 {
	return math.Min(100, math.Log10(float64(totalViews)+1)*12.5)
}

// Score rates a candidate under this strategy, 0-100.
//
// popularity prefers high current reach and engagement; novelty prefers
// low-saturation keywords; balanced is the mean of both.
func (s Strategy) Score(c Candidate) float64 {
	pop := 0.7*saturation(c.TotalViews) + 0.3*math.Min(100, c.AvgEngagement*10)
	nov := 100 - saturation(c.TotalViews)

	switch s {
	case StrategyPopularity:
		return pop
	case StrategyNovelty:
		return nov
	default:
		return (pop + nov) / 2
	}
}
