package components

// Position is an agent's grid cell.
type Position struct {
	X, Y int
}
