package allocate

import "github.com/Sasakiai/poker-chip-distribution/internal/model"

// reachability answers which amounts a denomination set can make exactly.
// Amounts are scaled down by the set's gcd. Every scaled amount at or above
// bound is makeable (Schur's bound on the Frobenius number); smaller ones are
// looked up in table.
type reachability struct {
	denoms []int64
	gcd    int64
	bound  int64
	table  []bool
}

func newReachability(denoms []model.Denomination) *reachability {
	r := &reachability{denoms: make([]int64, len(denoms))}
	for i, d := range denoms {
		r.denoms[i] = int64(d)
		r.gcd = gcd(r.gcd, int64(d))
	}
	lo := r.denoms[0] / r.gcd
	hi := r.denoms[len(r.denoms)-1] / r.gcd
	r.bound = (lo - 1) * (hi - 1)
	if r.bound == 0 {
		return r
	}

	r.table = make([]bool, r.bound)
	r.table[0] = true
	for v := int64(1); v < r.bound; v++ {
		for _, d := range r.denoms {
			if s := d / r.gcd; s <= v && r.table[v-s] {
				r.table[v] = true
				break
			}
		}
	}
	return r
}

func (r *reachability) makeable(v int64) bool {
	if v < 0 || v%r.gcd != 0 {
		return false
	}
	w := v / r.gcd
	return w >= r.bound || r.table[w]
}

// change returns per-index chip counts summing to v, taking the largest chip
// that leaves a makeable rest at every step.
func (r *reachability) change(v int64) ([]int64, bool) {
	out := make([]int64, len(r.denoms))
	for v > 0 {
		took := false
		for i := len(r.denoms) - 1; i >= 0; i-- {
			if d := r.denoms[i]; d <= v && r.makeable(v-d) {
				out[i]++
				v -= d
				took = true
				break
			}
		}
		if !took {
			return nil, false
		}
	}
	return out, true
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
