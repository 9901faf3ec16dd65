package simulation

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/trackpilot/internal/core/systems/physics"
)

// Snapshot holds one position per body, in registration order.
type Snapshot []physics.Vector2D

// Trajectory is the ordered list of per-tick snapshots.
type Trajectory []Snapshot

// Final returns the last snapshot, or nil for an empty trajectory.
func (t Trajectory) Final() Snapshot {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// Body extracts the path of a single body.
func (t Trajectory) Body(i int) []physics.Vector2D {
	out := make([]physics.Vector2D, 0, len(t))
	for _, s := range t {
		if i < len(s) {
			out = append(out, s[i])
		}
	}
	return out
}

// Fingerprint hashes the exact bit patterns of every coordinate. Two
// trajectories have equal fingerprints only if they match bit for bit,
// up to hash collisions.
func (t Trajectory) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	write(uint64(len(t)))
	for _, s := range t {
		write(uint64(len(s)))
		for _, p := range s {
			write(math.Float64bits(p.X))
			write(math.Float64bits(p.Y))
		}
	}
	return d.Sum64()
}

// MarshalJSON encodes snapshots as arrays of [x, y] pairs.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	pairs := make([][2]float64, len(s))
	for i, p := range s {
		pairs[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(pairs)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var pairs [][2]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(Snapshot, len(pairs))
	for i, p := range pairs {
		out[i] = physics.Vec(p[0], p[1])
	}
	*s = out
	return nil
}
