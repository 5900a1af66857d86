package maze

import "slices"

// Frontier is the LIFO set of tiles known to be reachable but not yet
// visited. The most recently discovered tile is explored first.
type Frontier struct {
	items []Coord
}

// Push appends c unless it is already queued.
func (f *Frontier) Push(c Coord) {
	if f.Contains(c) {
		return
	}
	f.items = append(f.items, c)
}

// PopNext removes and returns the most recently pushed tile.
func (f *Frontier) PopNext() (Coord, bool) {
	c, ok := f.Peek()
	if ok {
		f.items = f.items[:len(f.items)-1]
	}
	return c, ok
}

// Peek returns the most recently pushed tile without removing it.
func (f *Frontier) Peek() (Coord, bool) {
	if len(f.items) == 0 {
		return Coord{}, false
	}
	return f.items[len(f.items)-1], true
}

// Remove drops c if present and reports whether it was queued.
func (f *Frontier) Remove(c Coord) bool {
	i := slices.Index(f.items, c)
	if i < 0 {
		return false
	}
	f.items = slices.Delete(f.items, i, i+1)
	return true
}

func (f *Frontier) Contains(c Coord) bool { return slices.Contains(f.items, c) }
func (f *Frontier) IsEmpty() bool         { return len(f.items) == 0 }
func (f *Frontier) Len() int              { return len(f.items) }

// Items returns a copy of the queued tiles, oldest first.
func (f *Frontier) Items() []Coord { return slices.Clone(f.items) }
