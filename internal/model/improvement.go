package model

import (
	"fmt"
	"strings"
)

// GroupImprovement selects how aggressively a population reclaims space
// that was pruned during the primary placement pass.
type GroupImprovement int

const (
	ImprovementNone     GroupImprovement = iota // Plain evaluation
	ImprovementDuring                           // Extend counts while side/top space remains
	ImprovementLateAll                          // Second pass for every individual
	ImprovementLateSome                         // Second pass for the top ranked individuals
	ImprovementLateBest                         // Second pass for the best individual only
)

// AllGroupImprovements lists every policy in a stable order.
func AllGroupImprovements() []GroupImprovement {
	return []GroupImprovement{
		ImprovementNone,
		ImprovementDuring,
		ImprovementLateAll,
		ImprovementLateSome,
		ImprovementLateBest,
	}
}

func (g GroupImprovement) String() string {
	switch g {
	case ImprovementDuring:
		return "during"
	case ImprovementLateAll:
		return "late_all"
	case ImprovementLateSome:
		return "late_some"
	case ImprovementLateBest:
		return "late_best"
	default:
		return "none"
	}
}

// ParseGroupImprovement converts a policy name such as "late_best" to its value.
func ParseGroupImprovement(s string) (GroupImprovement, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for _, g := range AllGroupImprovements() {
		if g.String() == name {
			return g, nil
		}
	}
	if name == "" {
		return ImprovementNone, nil
	}
	return ImprovementNone, fmt.Errorf("unknown group improvement %q", s)
}

// MarshalText encodes the policy by name.
func (g GroupImprovement) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a policy name.
func (g *GroupImprovement) UnmarshalText(text []byte) error {
	parsed, err := ParseGroupImprovement(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
