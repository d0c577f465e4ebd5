package usecase

import (
	"math/rand"
	"testing"
)

// zeroSource is a rand.Source that always yields zero, making every
// Intn draw deterministic.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func TestRandomGateCycleRatio(t *testing.T) {
	g := NewRandomGate(rand.New(rand.NewSource(42)))

	// Every complete refill cycle of six draws yields exactly two trues,
	// whatever the shuffle order.
	for cycle := 0; cycle < 20; cycle++ {
		trues := 0
		for i := 0; i < 6; i++ {
			if g.Next() {
				trues++
			}
		}
		if trues != 2 {
			t.Fatalf("cycle %d: got %d trues, want 2", cycle, trues)
		}
	}
}

func TestRandomGateRefillDoesNotMutateTemplate(t *testing.T) {
	g := NewRandomGate(rand.New(rand.NewSource(7)))
	for i := 0; i < 18; i++ {
		g.Next()
	}

	trues := 0
	for _, v := range gateBag {
		if v {
			trues++
		}
	}
	if trues != 2 || len(gateBag) != 6 {
		t.Errorf("bag template corrupted: %v", gateBag)
	}
}
