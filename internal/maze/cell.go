package maze

import "strings"

// Tile is the state of a traversable maze cell.
type Tile uint8

const (
	TileUnknown Tile = iota
	// TileUnexplored marks a tile seen through an open edge but not yet visited.
	TileUnexplored
	TileClear
	TileSilver
	TileBlack
	TileBumpSlope
)

func (t Tile) String() string {
	switch t {
	case TileUnknown:
		return "unknown"
	case TileUnexplored:
		return "unexplored"
	case TileClear:
		return "clear"
	case TileSilver:
		return "silver"
	case TileBlack:
		return "black"
	case TileBumpSlope:
		return "bump"
	default:
		return "invalid"
	}
}

// Known reports whether the tile has been visited and may be planned through.
func (t Tile) Known() bool {
	return t != TileUnknown && t != TileUnexplored
}

// Wall is the wall part of an edge cell. It occupies bits 4-3 of the cell so
// it can be OR-merged with a Victim on the same byte.
type Wall uint8

const (
	WallUnknown Wall = 0b00_000
	WallAbsent  Wall = 0b01_000
	WallPresent Wall = 0b10_000
	// WallVirtual blocks planning without asserting a physical wall.
	WallVirtual Wall = 0b11_000

	wallMask    = 0b11_000
	blockingBit = 0b10_000
)

func (w Wall) String() string {
	switch w {
	case WallUnknown:
		return "unknown"
	case WallAbsent:
		return "absent"
	case WallPresent:
		return "present"
	case WallVirtual:
		return "virtual"
	default:
		return "invalid"
	}
}

// Victim is the 3-bit rescue target classification stored on an edge. The
// numeric values match the wire encoding of the response byte.
type Victim uint8

const (
	VictimNone Victim = iota
	VictimH
	VictimS
	VictimU
	VictimRed
	VictimYellow
	VictimGreen
	VictimHeated

	victimMask = 0b111
)

var victimNames = [...]string{"none", "H", "S", "U", "red", "yellow", "green", "heated"}

func (v Victim) String() string {
	if int(v) < len(victimNames) {
		return victimNames[v]
	}
	return "invalid"
}

// IsCharacter reports whether the victim is a letter (H, S or U).
func (v Victim) IsCharacter() bool { return v >= VictimH && v <= VictimU }

// IsColor reports whether the victim is a coloured marker.
func (v Victim) IsColor() bool { return v >= VictimRed && v <= VictimGreen }

// ParseVictim accepts the victim names used by String, case-insensitively.
func ParseVictim(s string) (Victim, bool) {
	for i, name := range victimNames {
		if strings.EqualFold(s, name) {
			return Victim(i), true
		}
	}
	return VictimNone, false
}

// Edge is a packed edge cell: Wall in bits 4-3, Victim in bits 2-0.
type Edge uint8

// MakeEdge packs a wall state and a victim marker.
func MakeEdge(w Wall, v Victim) Edge {
	return Edge(uint8(w)&wallMask | uint8(v)&victimMask)
}

func (e Edge) Wall() Wall     { return Wall(uint8(e) & wallMask) }
func (e Edge) Victim() Victim { return Victim(uint8(e) & victimMask) }

// Blocked reports whether the edge cannot be crossed. Present and Virtual
// walls block; Absent and Unknown do not.
func (e Edge) Blocked() bool { return uint8(e)&blockingBit != 0 }
