package maze

import "fmt"

// Coord is a logical grid coordinate. The start tile is (0,0); tiles sit at
// even/even coordinates and the edge between two neighbours at the odd
// coordinate between them.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Add returns c shifted by n steps of the unit vector of d.
func (c Coord) Add(d Direction, n int) Coord {
	u := units[d.norm()]
	return Coord{Row: c.Row + u.Row*n, Col: c.Col + u.Col*n}
}

// IsTile reports whether c addresses a tile cell.
func (c Coord) IsTile() bool { return even(c.Row) && even(c.Col) }

// IsEdge reports whether c addresses an edge cell.
func (c Coord) IsEdge() bool { return even(c.Row) != even(c.Col) }

func even(n int) bool { return n%2 == 0 }

// Direction is an absolute heading relative to the robot's start heading.
type Direction int

const (
	North Direction = iota
	West
	South
	East
)

// units are (row, col) unit vectors indexed by Direction.
var units = [4]Coord{{-1, 0}, {0, -1}, {1, 0}, {0, 1}}

func (d Direction) norm() Direction { return ((d % 4) + 4) % 4 }

// Turn returns the absolute direction seen at relative offset r.
func (d Direction) Turn(r Relative) Direction { return (d + Direction(r)).norm() }

// Opposite returns the direction rotated by 180 degrees.
func (d Direction) Opposite() Direction { return d.Turn(Back) }

func (d Direction) String() string {
	switch d.norm() {
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	default:
		return "east"
	}
}

// Directions lists the absolute directions in their numeric order.
var Directions = [4]Direction{North, West, South, East}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, bool) {
	for _, d := range Directions {
		if d.String() == s {
			return d, true
		}
	}
	return North, false
}

// Relative is a direction as seen from the robot.
type Relative int

const (
	Front Relative = iota
	Left
	Back
	Right
)

func (r Relative) String() string {
	switch r {
	case Front:
		return "front"
	case Left:
		return "left"
	case Back:
		return "back"
	case Right:
		return "right"
	default:
		return "invalid"
	}
}

// Move is a motion command. The numeric value is the two-bit move code of
// the response byte.
type Move uint8

const (
	Forward Move = iota
	TurnRight
	TurnLeft
	Reverse
)

// Relative returns the robot-relative direction the move travels in.
func (m Move) Relative() Relative {
	switch m {
	case TurnRight:
		return Right
	case TurnLeft:
		return Left
	case Reverse:
		return Back
	default:
		return Front
	}
}

func (m Move) String() string {
	switch m {
	case Forward:
		return "forward"
	case TurnRight:
		return "right"
	case TurnLeft:
		return "left"
	case Reverse:
		return "back"
	default:
		return "invalid"
	}
}

// Pose is the robot's current tile and absolute heading.
type Pose struct {
	Pos Coord     `json:"pos"`
	Dir Direction `json:"dir"`
}

// Apply returns the pose after executing m: the heading is rotated first and
// the robot then advances one tile.
func (p Pose) Apply(m Move) Pose {
	dir := p.Dir.Turn(m.Relative())
	return Pose{Pos: p.Pos.Add(dir, 2), Dir: dir}
}

// Look returns the absolute direction and the neighbouring tile at r.
func (p Pose) Look(r Relative) (Direction, Coord) {
	dir := p.Dir.Turn(r)
	return dir, p.Pos.Add(dir, 2)
}

// MoveTo returns the move that brings the robot onto the adjacent tile c.
func (p Pose) MoveTo(c Coord) (Move, bool) {
	for _, m := range [...]Move{Forward, TurnRight, TurnLeft, Reverse} {
		if _, next := p.Look(m.Relative()); next == c {
			return m, true
		}
	}
	return Forward, false
}
