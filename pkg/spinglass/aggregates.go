package spinglass

import (
	"go.uber.org/atomic"
)

// AggregateStats tracks, per spin value, the number of vertices holding it and
// their total strength. With the correlated null model it also splits the
// strength by degree class. Every entry is atomic so parallel sweeps can
// update it without a global lock; a reader may observe a flip half applied.
type AggregateStats struct {
	vs            *vertexStats
	counts        []atomic.Int64
	strength      []atomic.Float64
	numClasses    int
	classStrength []atomic.Float64 // classStrength[spin*numClasses+class], nil unless tracked
}

func newAggregateStats(vs *vertexStats, nSpins int, trackClasses bool) *AggregateStats {
	a := &AggregateStats{
		vs:       vs,
		counts:   make([]atomic.Int64, nSpins),
		strength: make([]atomic.Float64, nSpins),
	}
	if trackClasses {
		a.numClasses = vs.numClasses()
		a.classStrength = make([]atomic.Float64, nSpins*a.numClasses)
	}
	return a
}

// add accounts for vertex v holding spin s
func (a *AggregateStats) add(v int, s int32) {
	k := a.vs.strength[v]
	a.counts[s].Inc()
	a.strength[s].Add(k)
	if a.classStrength != nil {
		a.classStrength[int(s)*a.numClasses+int(a.vs.class[v])].Add(k)
	}
}

// remove undoes add
func (a *AggregateStats) remove(v int, s int32) {
	k := a.vs.strength[v]
	a.counts[s].Dec()
	a.strength[s].Sub(k)
	if a.classStrength != nil {
		a.classStrength[int(s)*a.numClasses+int(a.vs.class[v])].Sub(k)
	}
}

// Apply moves vertex v's contribution from spin from to spin to. It must be
// called exactly once per accepted flip.
func (a *AggregateStats) Apply(v int, from, to int32) {
	if from == to {
		return
	}
	a.remove(v, from)
	a.add(v, to)
}

// NumSpins returns the number of spin values tracked
func (a *AggregateStats) NumSpins() int { return len(a.counts) }

// Count returns how many vertices hold spin s
func (a *AggregateStats) Count(s int32) int64 { return a.counts[s].Load() }

// Strength returns the total strength of the vertices holding spin s
func (a *AggregateStats) Strength(s int32) float64 { return a.strength[s].Load() }

// ClassStrength returns the strength of degree class c inside spin s, or 0
// when classes are not tracked
func (a *AggregateStats) ClassStrength(s int32, c int32) float64 {
	if a.classStrength == nil {
		return 0
	}
	return a.classStrength[int(s)*a.numClasses+int(c)].Load()
}

// Active returns the number of spin values held by at least one vertex
func (a *AggregateStats) Active() int {
	active := 0
	for i := range a.counts {
		if a.counts[i].Load() > 0 {
			active++
		}
	}
	return active
}

// ActiveSpins returns the spin values in use, ascending
func (a *AggregateStats) ActiveSpins() []int32 {
	spins := make([]int32, 0, len(a.counts))
	for i := range a.counts {
		if a.counts[i].Load() > 0 {
			spins = append(spins, int32(i))
		}
	}
	return spins
}

// proposalPool returns the active spins followed by the lowest unused spin,
// if any, which lets the number of communities grow.
func (a *AggregateStats) proposalPool(buf []int32) []int32 {
	pool := buf[:0]
	fresh := int32(-1)
	for i := range a.counts {
		if a.counts[i].Load() > 0 {
			pool = append(pool, int32(i))
		} else if fresh < 0 {
			fresh = int32(i)
		}
	}
	if fresh >= 0 {
		pool = append(pool, fresh)
	}
	return pool
}
