package usecase

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

const (
	// RollLower and RollUpper bound the accepted integer spec.
	RollLower = 2
	RollUpper = 7000
	// RollSeparator splits a list spec into candidate tokens.
	RollSeparator = ","
	// RollMaxSpecs caps how many specs one command may carry.
	RollMaxSpecs = 5
	// RollDefault is rolled when no valid spec is supplied.
	RollDefault = 100
)

// RollHelp is sent back when an integer spec is out of range.
var RollHelp = fmt.Sprintf("valid range is %d ~ %d", RollLower, RollUpper)

// rollSpec is one parsed roll request: an upper bound, or a token list.
type rollSpec struct {
	upper  int
	tokens []string
}

// RollEvaluator resolves /roll command arguments into a result line.
type RollEvaluator struct {
	rng *rand.Rand
}

// NewRollEvaluator creates an evaluator drawing from rng
func NewRollEvaluator(rng *rand.Rand) *RollEvaluator {
	return &RollEvaluator{rng: rng}
}

// Evaluate parses the arguments after /roll and returns one formatted
// "<picked>/<all-or-range>" fragment per spec, joined by ", ". An
// out-of-range integer aborts immediately with the usage text. Parsing
// stops at the first token that is neither a bounded integer nor a list;
// no valid specs defaults to a single 1..100 roll.
func (e *RollEvaluator) Evaluate(args []string) string {
	if len(args) > RollMaxSpecs {
		args = args[:RollMaxSpecs]
	}

	var specs []rollSpec
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			if n < RollLower || n > RollUpper {
				return RollHelp
			}
			specs = append(specs, rollSpec{upper: n})
			continue
		}
		if strings.Contains(arg, RollSeparator) {
			specs = append(specs, rollSpec{tokens: strings.Split(arg, RollSeparator)})
			continue
		}
		break
	}
	if len(specs) == 0 {
		specs = []rollSpec{{upper: RollDefault}}
	}

	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		if s.upper > 0 {
			parts = append(parts, fmt.Sprintf("%d/%d", e.rng.Intn(s.upper)+1, s.upper))
		} else {
			pick := s.tokens[e.rng.Intn(len(s.tokens))]
			parts = append(parts, fmt.Sprintf("%s/%s", pick, strings.Join(s.tokens, RollSeparator)))
		}
	}
	return strings.Join(parts, ", ")
}
