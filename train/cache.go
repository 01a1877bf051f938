package train

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/aouyang1/go-crf/chain"
	"github.com/aouyang1/go-crf/feature"

	"github.com/VictoriaMetrics/fastcache"
	"gonum.org/v1/gonum/mat"
)

// Lattice holds everything inference derives from one observation sequence under one parameter
// vector
type Lattice struct {
	Sequence *chain.Sequence
	Messages *chain.Messages
}

// CacheStats counts lattice lookups of a sweep
type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// SweepCache memoizes lattices by the value of their observation sequence. Lattices depend on
// the parameters, so a cache must only be used while the parameters are fixed and must be reset
// before the parameters change.
type SweepCache struct {
	cache     *fastcache.Cache
	numLabels int
	stats     CacheStats
}

// NewSweepCache allocates a cache of at most maxBytes for lattices of numLabels labels
func NewSweepCache(maxBytes, numLabels int) *SweepCache {
	return &SweepCache{
		cache:     fastcache.New(maxBytes),
		numLabels: numLabels,
	}
}

// Lattice returns the cached lattice of obs or builds, stores and returns it. A nil cache always
// builds.
func (c *SweepCache) Lattice(obs []int, params []float64, oracle *feature.Oracle) (*Lattice, error) {
	if c == nil {
		return NewLattice(obs, params, oracle)
	}
	key := cacheKey(obs)
	if buf := c.cache.GetBig(nil, key); buf != nil {
		lat, err := decodeLattice(buf, c.numLabels, obs)
		if err == nil {
			c.stats.Hits++
			return lat, nil
		}
	}
	c.stats.Misses++

	lat, err := NewLattice(obs, params, oracle)
	if err != nil {
		return nil, err
	}
	buf, err := encodeLattice(lat)
	if err != nil {
		return nil, err
	}
	c.cache.SetBig(key, buf)
	return lat, nil
}

// NumLabels returns the label count the cached lattices were built for
func (c *SweepCache) NumLabels() int {
	return c.numLabels
}

// Stats returns the hit and miss counts since the last reset
func (c *SweepCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return c.stats
}

// Reset drops every lattice and zeroes the counters
func (c *SweepCache) Reset() {
	c.cache.Reset()
	c.stats = CacheStats{}
}

// NewLattice builds the matrix sequence of obs and runs forward/backward over it
func NewLattice(obs []int, params []float64, oracle *feature.Oracle) (*Lattice, error) {
	seq, err := chain.Build(obs, params, oracle)
	if err != nil {
		return nil, err
	}
	msgs, err := seq.Messages()
	if err != nil {
		return nil, err
	}
	return &Lattice{Sequence: seq, Messages: msgs}, nil
}

func cacheKey(obs []int) []byte {
	key := make([]byte, 0, len(obs)+binary.MaxVarintLen64)
	key = binary.AppendUvarint(key, uint64(len(obs)))
	for _, x := range obs {
		key = binary.AppendUvarint(key, uint64(x))
	}
	return key
}

// encodeLattice writes the edge matrices followed by the forward and backward messages and the
// per-edge scale factors
func encodeLattice(lat *Lattice) ([]byte, error) {
	var buf bytes.Buffer
	for e := 0; e < lat.Sequence.NumEdges(); e++ {
		m, err := lat.Sequence.Matrix(e)
		if err != nil {
			return nil, err
		}
		if _, err := m.MarshalBinaryTo(&buf); err != nil {
			return nil, fmt.Errorf("encoding edge %d, %w", e, err)
		}
	}
	for _, msgs := range [][]*mat.VecDense{lat.Messages.Forward, lat.Messages.Backward} {
		for i, v := range msgs {
			if _, err := v.MarshalBinaryTo(&buf); err != nil {
				return nil, fmt.Errorf("encoding message %d, %w", i, err)
			}
		}
	}
	scale := mat.NewVecDense(len(lat.Messages.Scale), lat.Messages.Scale)
	if _, err := scale.MarshalBinaryTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding scale factors, %w", err)
	}
	return buf.Bytes(), nil
}

func decodeLattice(data []byte, numLabels int, obs []int) (*Lattice, error) {
	r := bytes.NewReader(data)
	numEdges := len(obs) + 1

	matrices := make([]*mat.Dense, numEdges)
	for e := range matrices {
		m := new(mat.Dense)
		if _, err := m.UnmarshalBinaryFrom(r); err != nil {
			return nil, fmt.Errorf("decoding edge %d, %w", e, err)
		}
		matrices[e] = m
	}
	seq, err := chain.NewSequence(numLabels, obs, matrices)
	if err != nil {
		return nil, err
	}

	decodeMessages := func() ([]*mat.VecDense, error) {
		msgs := make([]*mat.VecDense, numEdges+1)
		for i := range msgs {
			v := new(mat.VecDense)
			if _, err := v.UnmarshalBinaryFrom(r); err != nil {
				return nil, fmt.Errorf("decoding message %d, %w", i, err)
			}
			msgs[i] = v
		}
		return msgs, nil
	}
	fwd, err := decodeMessages()
	if err != nil {
		return nil, err
	}
	bwd, err := decodeMessages()
	if err != nil {
		return nil, err
	}
	scale := new(mat.VecDense)
	if _, err := scale.UnmarshalBinaryFrom(r); err != nil {
		return nil, fmt.Errorf("decoding scale factors, %w", err)
	}
	msgs, err := chain.NewMessages(fwd, bwd, scale.RawVector().Data)
	if err != nil {
		return nil, err
	}
	return &Lattice{Sequence: seq, Messages: msgs}, nil
}
