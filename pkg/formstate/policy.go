package formstate

import (
	"fmt"
	"strings"
)

// Policy aggregates per-check outcomes into a field verdict.
type Policy int

const (
	// AnyPass marks a field valid when at least one check passed, across every
	// assigned rule type.
	AnyPass Policy = iota
	// AllPass marks a field valid only when every check passed.
	AllPass
)

func (p Policy) String() string {
	switch p {
	case AnyPass:
		return "any"
	case AllPass:
		return "all"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "any"/"all" (and the any-pass/all-pass spellings).
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any", "any-pass", "any_pass":
		return AnyPass, nil
	case "all", "all-pass", "all_pass":
		return AllPass, nil
	default:
		return AnyPass, fmt.Errorf("formstate: unknown policy %q", raw)
	}
}

func (p Policy) valid() bool {
	return p == AnyPass || p == AllPass
}

func (p Policy) aggregate(checks []CheckResult) bool {
	if p == AllPass {
		for _, check := range checks {
			if !check.Passed {
				return false
			}
		}
		return true
	}
	for _, check := range checks {
		if check.Passed {
			return true
		}
	}
	return false
}
