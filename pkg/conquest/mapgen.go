package conquest

// GenerateMap builds a deterministic terrain grid from a seed. The same
// (width, height, seed) triple always yields the same map on every
// platform: elevation is computed with integer value-noise only, no
// floating point and no global random source.
//
// Elevation below sea level becomes water, and the map border is always
// ocean so territory cannot wrap visually at the edge.
func GenerateMap(width, height int, seed int64) *GameMap {
	terrain := make([]Terrain, width*height)

	const cell = 8 // noise lattice spacing in tiles
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			e := elevation(x, y, cell, uint64(seed))
			// Push the border underwater over a 3-tile margin.
			margin := min4(x, y, width-1-x, height-1-y)
			if margin < 3 {
				e -= (3 - margin) * 90
			}

			var t Terrain
			switch {
			case e < 110:
				t = Water
			case e < 190:
				t = Plains
			case e < 230:
				t = Highland
			default:
				t = Mountain
			}
			terrain[y*width+x] = t
		}
	}

	m, err := NewGameMap(width, height, terrain)
	if err != nil {
		// width/height were validated by construction above
		panic(err)
	}
	return m
}

// elevation samples bilinear value-noise at two octaves, returning 0..255.
func elevation(x, y, cell int, seed uint64) int {
	coarse := sampleNoise(x, y, cell*2, seed)
	fine := sampleNoise(x, y, cell, seed^0x9e3779b97f4a7c15)
	return (coarse*3 + fine) / 4
}

// sampleNoise interpolates hashed lattice values around (x, y) using
// fixed-point arithmetic (8 fractional bits).
func sampleNoise(x, y, cell int, seed uint64) int {
	cx, cy := x/cell, y/cell
	fx := ((x % cell) << 8) / cell
	fy := ((y % cell) << 8) / cell

	v00 := latticeValue(cx, cy, seed)
	v10 := latticeValue(cx+1, cy, seed)
	v01 := latticeValue(cx, cy+1, seed)
	v11 := latticeValue(cx+1, cy+1, seed)

	top := v00*(256-fx) + v10*fx
	bot := v01*(256-fx) + v11*fx
	return (top*(256-fy) + bot*fy) >> 16
}

// latticeValue hashes a lattice point to 0..255 (splitmix64 finalizer).
func latticeValue(cx, cy int, seed uint64) int {
	h := seed ^ uint64(cx)*0xbf58476d1ce4e5b9 ^ uint64(cy)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	h *= 0x94d049bb133111eb
	h ^= h >> 31
	return int(h & 0xff)
}

func min4(a, b, c, d int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	if d < a {
		a = d
	}
	return a
}
