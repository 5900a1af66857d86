package explore

import (
	"fmt"
	"strings"

	"github.com/banshee-data/mazesolver/internal/maze"
)

// Bit positions of the sensor byte sent by the motor controller.
const (
	bitWallLeft = iota
	bitWallFront
	bitWallRight
	bitHeatLeft
	bitHeatRight
	bitSilver
	bitBlack
	bitBumpSlope
)

// Reading is one decoded sensor byte. Every byte value is a valid reading.
type Reading struct {
	BumpSlope bool
	Black     bool
	Silver    bool
	HeatRight bool
	HeatLeft  bool
	WallRight bool
	WallFront bool
	WallLeft  bool
}

// DecodeReading unpacks a sensor byte.
func DecodeReading(b byte) Reading {
	bit := func(n int) bool { return b&(1<<n) != 0 }
	return Reading{
		BumpSlope: bit(bitBumpSlope),
		Black:     bit(bitBlack),
		Silver:    bit(bitSilver),
		HeatRight: bit(bitHeatRight),
		HeatLeft:  bit(bitHeatLeft),
		WallRight: bit(bitWallRight),
		WallFront: bit(bitWallFront),
		WallLeft:  bit(bitWallLeft),
	}
}

// Byte packs the reading back into its wire form.
func (r Reading) Byte() byte {
	var b byte
	set := func(on bool, n int) {
		if on {
			b |= 1 << n
		}
	}
	set(r.BumpSlope, bitBumpSlope)
	set(r.Black, bitBlack)
	set(r.Silver, bitSilver)
	set(r.HeatRight, bitHeatRight)
	set(r.HeatLeft, bitHeatLeft)
	set(r.WallRight, bitWallRight)
	set(r.WallFront, bitWallFront)
	set(r.WallLeft, bitWallLeft)
	return b
}

// Response is the decision sent back to the motor controller.
type Response struct {
	Move  maze.Move
	Right maze.Victim
	Left  maze.Victim
}

const (
	shiftMove        = 6
	shiftVictimRight = 3
	shiftVictimLeft  = 0
)

// Byte encodes the move in bits 7-6, the right victim in bits 5-3 and the
// left victim in bits 2-0.
func (r Response) Byte() byte {
	return byte(r.Move&0b11)<<shiftMove |
		byte(r.Right&0b111)<<shiftVictimRight |
		byte(r.Left&0b111)<<shiftVictimLeft
}

// DecodeResponse unpacks a response byte.
func DecodeResponse(b byte) Response {
	return Response{
		Move:  maze.Move(b >> shiftMove & 0b11),
		Right: maze.Victim(b >> shiftVictimRight & 0b111),
		Left:  maze.Victim(b >> shiftVictimLeft & 0b111),
	}
}

func (r Response) String() string {
	return fmt.Sprintf("%s right=%s left=%s", r.Move, r.Right, r.Left)
}

// Side is what the camera identified on one side of the robot.
type Side struct {
	Character maze.Victim `json:"character,omitempty"`
	Color     maze.Victim `json:"color,omitempty"`
}

// Victim returns the identification to record: a character wins over a
// colour.
func (s Side) Victim() maze.Victim {
	if s.Character != maze.VictimNone {
		return s.Character
	}
	return s.Color
}

// Validate checks that Character holds a letter and Color a colour.
func (s Side) Validate() error {
	if s.Character != maze.VictimNone && !s.Character.IsCharacter() {
		return fmt.Errorf("character %d is not a letter victim", s.Character)
	}
	if s.Color != maze.VictimNone && !s.Color.IsColor() {
		return fmt.Errorf("color %d is not a colour victim", s.Color)
	}
	return nil
}

// Sighting carries externally identified visual victims for one step. It
// only takes effect on a side whose heat sensor is quiet.
type Sighting struct {
	Right Side `json:"right"`
	Left  Side `json:"left"`
}

// Validate checks both sides.
func (s Sighting) Validate() error {
	if err := s.Right.Validate(); err != nil {
		return fmt.Errorf("right: %w", err)
	}
	if err := s.Left.Validate(); err != nil {
		return fmt.Errorf("left: %w", err)
	}
	return nil
}

// IsZero reports whether nothing was identified.
func (s Sighting) IsZero() bool { return s == Sighting{} }

// ParseSide parses a comma separated list of victim names such as "H",
// "red" or "S,green".
func ParseSide(s string) (Side, error) {
	var side Side
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, ok := maze.ParseVictim(tok)
		switch {
		case !ok:
			return Side{}, fmt.Errorf("unknown victim %q", tok)
		case v.IsCharacter():
			side.Character = v
		case v.IsColor():
			side.Color = v
		case v == maze.VictimNone:
		default:
			return Side{}, fmt.Errorf("victim %q cannot be identified visually", tok)
		}
	}
	return side, nil
}
