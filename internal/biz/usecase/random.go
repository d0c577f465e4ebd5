package usecase

import "math/rand"

// gateBag is the fixed multiset one refill cycle drains: two trues in six
// draws, long-run trigger probability 1/3.
var gateBag = []bool{true, true, false, false, false, false}

// RandomGate is a biased boolean gate with bag sampling: tokens are drawn
// without replacement and the bag is reshuffled only when empty, so every
// complete cycle of six draws contains exactly two trues. An independent
// coin flip is not equivalent; streak length here is bounded by one cycle.
type RandomGate struct {
	rng *rand.Rand
	bag []bool
}

// NewRandomGate creates a gate drawing from rng
func NewRandomGate(rng *rand.Rand) *RandomGate {
	return &RandomGate{rng: rng}
}

// Next pops one token, refilling and shuffling the bag when it is empty.
func (g *RandomGate) Next() bool {
	if len(g.bag) == 0 {
		g.bag = append(g.bag, gateBag...)
		g.rng.Shuffle(len(g.bag), func(i, j int) {
			g.bag[i], g.bag[j] = g.bag[j], g.bag[i]
		})
	}
	v := g.bag[len(g.bag)-1]
	g.bag = g.bag[:len(g.bag)-1]
	return v
}
