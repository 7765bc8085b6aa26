package systems

import (
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/leyline/field"
)

// CountMagicalNeighbors fills counts (row-major, len w*h) with the number
// of non-Barren cells in the square neighbourhood of the given radius,
// excluding the cell itself. Cells at the edge simply have fewer
// neighbours.
//
// With workers > 1 the grid is split into disjoint row bands. Each worker
// reads only the immutable snapshot and writes only its own rows, and
// Wait is the barrier before any caller reads counts.
func CountMagicalNeighbors(snap *field.Snapshot, radius int, counts []int, workers int) error {
	h := snap.Height()
	if workers <= 1 || h < 2*workers {
		countRows(snap, radius, counts, 0, h)
		return nil
	}

	var g errgroup.Group
	band := (h + workers - 1) / workers
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			countRows(snap, radius, counts, y0, y1)
			return nil
		})
	}
	return g.Wait()
}

func countRows(snap *field.Snapshot, radius int, counts []int, y0, y1 int) {
	w, h := snap.Width(), snap.Height()
	for y := y0; y < y1; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					if snap.Terrain(nx, ny).IsMagical() {
						n++
					}
				}
			}
			counts[y*w+x] = n
		}
	}
}
