package layout

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/pipegraph/pkg/graph"
)

// Force runs a force-directed simulation and returns the final position of
// every node.
//
// Nodes with a Position start there; the rest are placed uniformly at random
// inside the padded canvas using a PCG source seeded from cfg.Seed, so equal
// inputs give equal outputs. With k = sqrt(Width*Height/n), each round:
//
//   - every ordered pair of distinct nodes repels with force k²/d
//   - every edge pulls its endpoints together with force d²/k
//   - each node moves along its net force, by at most the current
//     temperature BaseTemperature*(1 - round/Iterations)
//
// Distances are floored at 1. Coincident nodes push apart along a fixed
// direction derived from their indices. When cfg.Tolerance is positive the
// simulation stops early once no node moves further than it in a round.
//
// ctx is checked once per round; a cancelled simulation returns ctx.Err()
// and no positions. Each round costs O(V² + E).
func Force(ctx context.Context, m *graph.Model, cfg Config) (map[string]graph.Position, error) {
	pos, _, err := simulate(ctx, m, cfg.WithDefaults())
	return pos, err
}

type vec struct{ x, y float64 }

func simulate(ctx context.Context, m *graph.Model, cfg Config) (map[string]graph.Position, int, error) {
	nodes := m.Nodes()
	n := len(nodes)
	if n == 0 {
		return map[string]graph.Position{}, 0, nil
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef))
	p := make([]vec, n)
	for i, node := range nodes {
		if node.Position != nil {
			p[i] = vec{node.Position.X, node.Position.Y}
			continue
		}
		p[i] = vec{
			x: randomIn(rng, cfg.Padding, cfg.Width-cfg.Padding),
			y: randomIn(rng, cfg.Padding, cfg.Height-cfg.Padding),
		}
	}

	type link struct{ s, t int }
	links := make([]link, 0, m.EdgeCount())
	for _, e := range m.Edges() {
		if e.Source != e.Target {
			links = append(links, link{m.Index(e.Source), m.Index(e.Target)})
		}
	}

	k := math.Sqrt(cfg.Width * cfg.Height / float64(n))
	disp := make([]vec, n)
	rounds := 0

	for round := 0; round < cfg.Iterations; round++ {
		if err := ctx.Err(); err != nil {
			return nil, rounds, err
		}
		rounds++
		clear(disp)

		for i := range n {
			for j := range n {
				if i == j {
					continue
				}
				ux, uy, d := direction(p[i], p[j], i, j)
				f := k * k / d
				disp[i].x += ux * f
				disp[i].y += uy * f
			}
		}

		for _, l := range links {
			dx, dy := p[l.s].x-p[l.t].x, p[l.s].y-p[l.t].y
			raw := math.Hypot(dx, dy)
			if raw == 0 {
				continue
			}
			d := max(raw, 1)
			f := d * d / k
			ux, uy := dx/raw, dy/raw
			disp[l.s].x -= ux * f
			disp[l.s].y -= uy * f
			disp[l.t].x += ux * f
			disp[l.t].y += uy * f
		}

		temp := cfg.BaseTemperature * (1 - float64(round)/float64(cfg.Iterations))
		moved := 0.0
		for i := range n {
			length := math.Hypot(disp[i].x, disp[i].y)
			if length == 0 {
				continue
			}
			step := min(length, temp)
			p[i].x += disp[i].x / length * step
			p[i].y += disp[i].y / length * step
			moved = max(moved, step)
		}

		if cfg.Tolerance > 0 && moved < cfg.Tolerance {
			break
		}
	}

	out := make(map[string]graph.Position, n)
	for i, node := range nodes {
		out[node.ID] = graph.Position{X: p[i].x, Y: p[i].y}
	}
	return out, rounds, nil
}

// direction returns the unit vector from b to a and their distance floored
// at 1. Coincident points get a fixed direction so the result stays
// deterministic.
func direction(a, b vec, i, j int) (float64, float64, float64) {
	dx, dy := a.x-b.x, a.y-b.y
	d := math.Hypot(dx, dy)
	if d == 0 {
		// golden angle spreads pairs evenly; i and j give opposite directions
		angle := float64(min(i, j)*31+max(i, j)) * 2.399963229728653
		ux, uy := math.Cos(angle), math.Sin(angle)
		if i > j {
			ux, uy = -ux, -uy
		}
		return ux, uy, 1
	}
	return dx / d, dy / d, max(d, 1)
}

func randomIn(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
