package harness

import (
	"sort"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Summary aggregates runs that share a type count and a policy.
type Summary struct {
	TypesCount      int                    `json:"types_count"`
	Improvement     model.GroupImprovement `json:"group_improvement"`
	Runs            int                    `json:"runs"`
	Interrupted     int                    `json:"interrupted"`
	MeanValue       float64                `json:"mean_value"`
	MeanOccupancy   float64                `json:"mean_occupancy"`
	MeanGain        float64                `json:"mean_gain"` // best value over the initial best
	MeanGenerations float64                `json:"mean_generations"`
	MeanDuration    float64                `json:"mean_duration"`
	// Wins counts problems where this policy reached the highest value among all policies.
	Wins int `json:"wins"`
}

type summaryKey struct {
	types  int
	policy model.GroupImprovement
}

// Summarize groups results by (types count, policy), ordered by types then policy.
func Summarize(results []model.Stats) []Summary {
	groups := make(map[summaryKey]*Summary)
	bestByProblem := make(map[string]float64)
	for _, s := range results {
		if v, ok := bestByProblem[s.ProblemID]; !ok || s.BestValue.Value > v {
			bestByProblem[s.ProblemID] = s.BestValue.Value
		}
	}

	for _, s := range results {
		k := summaryKey{types: s.TypesCount, policy: s.GroupImprovement}
		g, ok := groups[k]
		if !ok {
			g = &Summary{TypesCount: k.types, Improvement: k.policy}
			groups[k] = g
		}
		g.Runs++
		if s.Interrupted {
			g.Interrupted++
		}
		g.MeanValue += s.BestValue.Value
		g.MeanOccupancy += s.BestValue.Occupancy
		g.MeanGain += s.Improvement()
		g.MeanGenerations += float64(s.Generations)
		g.MeanDuration += s.Timings.Duration
		if s.BestValue.Value >= bestByProblem[s.ProblemID] {
			g.Wins++
		}
	}

	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		n := float64(g.Runs)
		g.MeanValue /= n
		g.MeanOccupancy /= n
		g.MeanGain /= n
		g.MeanGenerations /= n
		g.MeanDuration /= n
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TypesCount != out[j].TypesCount {
			return out[i].TypesCount < out[j].TypesCount
		}
		return out[i].Improvement < out[j].Improvement
	})
	return out
}
