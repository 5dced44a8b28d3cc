package copper

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceVia/pkg/geom"
)

const mm = 1000000

func TestObjectBasics(t *testing.T) {
	via := NewVia(geom.Pt(0, 0), 600000, 1)
	assert.Equal(t, int64(300000), via.Radius())
	assert.Equal(t, "via", via.Kind.String())

	track := NewTrack(geom.Pt(0, 0), geom.Pt(10*mm, 0), 250000, 2)
	assert.InDelta(t, 3*mm, track.Distance(geom.Pt(5*mm, 3*mm)), 1e-6)

	pad := NewPad(geom.Pt(1*mm, 1*mm), 1200001, 3)
	assert.Equal(t, int64(600000), pad.Radius())
	assert.Equal(t, 600000.5, pad.RadiusF())
}

func TestIndexAppendAndAll(t *testing.T) {
	idx := NewIndex([]Object{NewVia(geom.Pt(0, 0), mm, 1)}, 0)
	require.Equal(t, 1, idx.Len())

	idx.Append(NewPad(geom.Pt(20*mm, 0), mm, 2))
	require.Equal(t, 2, idx.Len())

	var kinds []Kind
	idx.All(func(o Object) bool {
		kinds = append(kinds, o.Kind)
		return true
	})
	assert.Equal(t, []Kind{Via, Pad}, kinds)

	count := 0
	idx.All(func(Object) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count, "All stops when fn returns false")
}

func TestIndexNear(t *testing.T) {
	idx := NewIndex([]Object{
		NewVia(geom.Pt(0, 0), mm, 1),
		NewVia(geom.Pt(3*mm, 0), mm, 1),
		NewTrack(geom.Pt(-50*mm, 10*mm), geom.Pt(50*mm, 10*mm), 200000, 2),
		NewVia(geom.Pt(-30*mm, -30*mm), mm, 3),
	}, 2*mm)

	var near []Object
	idx.Near(geom.Pt(1*mm, 0), 2*mm, func(o Object) bool {
		near = append(near, o)
		return true
	})
	require.Len(t, near, 2)
	assert.Equal(t, geom.Pt(0, 0), near[0].At, "results keep insertion order")
	assert.Equal(t, geom.Pt(3*mm, 0), near[1].At)

	// a long track has many anchors but is reported once
	hits := 0
	idx.Near(geom.Pt(0, 9*mm), 2*mm, func(o Object) bool {
		if o.Kind == Track {
			hits++
		}
		return true
	})
	assert.Equal(t, 1, hits)
}

// Near must report a superset of the objects an exhaustive scan finds within reach.
func TestIndexNearMatchesExhaustiveScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var objs []Object
	for i := 0; i < 400; i++ {
		p := geom.Pt(rng.Int63n(100*mm)-50*mm, rng.Int63n(100*mm)-50*mm)
		switch i % 3 {
		case 0:
			objs = append(objs, NewVia(p, 300000+rng.Int63n(mm), NetID(i%5)))
		case 1:
			objs = append(objs, NewPad(p, 500000+rng.Int63n(2*mm), NetID(i%5)))
		default:
			q := p.Add(geom.Pt(rng.Int63n(20*mm)-10*mm, rng.Int63n(20*mm)-10*mm))
			objs = append(objs, NewTrack(p, q, 150000+rng.Int63n(500000), NetID(i%5)))
		}
	}
	idx := NewIndex(objs, 3*mm)

	for trial := 0; trial < 200; trial++ {
		p := geom.Pt(rng.Int63n(100*mm)-50*mm, rng.Int63n(100*mm)-50*mm)
		reach := rng.Int63n(4 * mm)

		found := map[Object]bool{}
		idx.Near(p, reach, func(o Object) bool {
			found[o] = true
			return true
		})

		idx.All(func(o Object) bool {
			edge := o.Distance(p) - o.RadiusF()
			if edge < float64(reach) && !found[o] {
				t.Fatalf("Near(%v, %d) missed %v at edge distance %.0f", p, reach, o, edge)
			}
			return true
		})
	}
}

func TestIndexNearLargeReach(t *testing.T) {
	idx := NewIndex([]Object{
		NewVia(geom.Pt(0, 0), mm, 1),
		NewVia(geom.Pt(500*mm, 500*mm), mm, 1),
	}, mm)

	n := 0
	idx.Near(geom.Pt(250*mm, 250*mm), 400*mm, func(Object) bool {
		n++
		return true
	})
	assert.Equal(t, 2, n)
}

func TestIndexNearFindsAppended(t *testing.T) {
	idx := NewIndex(nil, 0)

	n := 0
	idx.Near(geom.Pt(0, 0), mm, func(Object) bool {
		n++
		return true
	})
	assert.Zero(t, n, "empty index")

	idx.Append(NewVia(geom.Pt(mm, 0), mm/2, 1))
	idx.Append(NewVia(geom.Pt(10*mm, 0), mm/2, 1))

	var near []Object
	idx.Near(geom.Pt(0, 0), mm, func(o Object) bool {
		near = append(near, o)
		return true
	})
	require.Len(t, near, 1)
	assert.Equal(t, geom.Pt(mm, 0), near[0].At)
}

// A long track is found from the middle of its run, far from both ends.
func TestIndexNearLongTrack(t *testing.T) {
	track := NewTrack(geom.Pt(0, 0), geom.Pt(200*mm, 0), 250000, 2)
	idx := NewIndex([]Object{track}, mm)

	var hits []Object
	idx.Near(geom.Pt(100*mm, mm), mm, func(o Object) bool {
		hits = append(hits, o)
		return true
	})
	require.Len(t, hits, 1, "the track is reported once")
	assert.Equal(t, track, hits[0])

	hits = nil
	idx.Near(geom.Pt(100*mm, 3*mm), mm, func(o Object) bool {
		hits = append(hits, o)
		return true
	})
	assert.Empty(t, hits, "copper edge is 2.875mm away")
}

// Objects appended one by one are found exactly like a bulk build.
func TestIndexAppendMatchesBulkBuild(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var objs []Object
	for i := 0; i < 200; i++ {
		p := geom.Pt(rng.Int63n(60*mm), rng.Int63n(60*mm))
		if i%2 == 0 {
			objs = append(objs, NewVia(p, 300000+rng.Int63n(mm), NetID(i%3)))
		} else {
			q := p.Add(geom.Pt(rng.Int63n(30*mm)-15*mm, rng.Int63n(30*mm)-15*mm))
			objs = append(objs, NewTrack(p, q, 200000, NetID(i%3)))
		}
	}

	bulk := NewIndex(objs, 2*mm)
	grown := NewIndex(objs[:50], 2*mm)
	for _, o := range objs[50:] {
		grown.Append(o)
	}

	collect := func(idx *Index, p geom.Point, reach int64) []Object {
		var out []Object
		idx.Near(p, reach, func(o Object) bool {
			out = append(out, o)
			return true
		})
		return out
	}
	for trial := 0; trial < 100; trial++ {
		p := geom.Pt(rng.Int63n(60*mm), rng.Int63n(60*mm))
		reach := rng.Int63n(3 * mm)
		assert.Equal(t, collect(bulk, p, reach), collect(grown, p, reach))
	}
}
