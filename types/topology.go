package types

// NoRank marks a missing neighbor.
const NoRank = -1

// Direction names one side of a worker's block in the square topology.
type Direction int

const (
	// Up is the side shared with rank-p (smaller row block).
	Up Direction = iota
	// Down is the side shared with rank+p (larger row block).
	Down
	// Left is the side shared with rank-1 (smaller column block).
	Left
	// Right is the side shared with rank+1 (larger column block).
	Right
)

// Directions lists all four sides in a fixed order.
var Directions = [4]Direction{Up, Down, Left, Right}

// String returns the lower-case direction name (used as a metrics label).
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Opposite returns the side facing d on the neighboring block.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Vertical reports whether d is Up or Down.
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// Tag labels a point-to-point message so that receives match the intended send.
//
// Halo tags encode the direction of travel: a row sent to the neighbor above
// travels Up and is received by that neighbor with TagUp.
type Tag uint8

const (
	// TagUp marks halo data travelling to the neighbor above.
	TagUp Tag = iota + 1
	// TagDown marks halo data travelling to the neighbor below.
	TagDown
	// TagLeft marks halo data travelling to the left neighbor.
	TagLeft
	// TagRight marks halo data travelling to the right neighbor.
	TagRight
	// TagDisplay marks row segments sent to the coordinator for printing.
	TagDisplay
)

// TagFor returns the tag for halo data travelling in direction d.
func TagFor(d Direction) Tag {
	switch d {
	case Up:
		return TagUp
	case Down:
		return TagDown
	case Left:
		return TagLeft
	default:
		return TagRight
	}
}

// String returns a short tag name.
func (t Tag) String() string {
	switch t {
	case TagUp:
		return "halo-up"
	case TagDown:
		return "halo-down"
	case TagLeft:
		return "halo-left"
	case TagRight:
		return "halo-right"
	case TagDisplay:
		return "display"
	default:
		return "unknown"
	}
}

// Neighbors holds the ranks adjacent to a worker, NoRank where a side has no neighbor.
type Neighbors struct {
	Up    int
	Down  int
	Left  int
	Right int
}

// Get returns the neighbor rank on side d.
func (n Neighbors) Get(d Direction) int {
	switch d {
	case Up:
		return n.Up
	case Down:
		return n.Down
	case Left:
		return n.Left
	default:
		return n.Right
	}
}

// Has reports whether a neighbor exists on side d.
func (n Neighbors) Has(d Direction) bool {
	return n.Get(d) != NoRank
}

// Count returns the number of existing neighbors.
func (n Neighbors) Count() int {
	count := 0
	for _, d := range Directions {
		if n.Has(d) {
			count++
		}
	}

	return count
}
