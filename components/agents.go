package components

// Vitality tracks a creature's remaining energy.
type Vitality struct {
	Energy float32
	Max    float32
	Steps  int // move/act steps taken
}

// Unit is a faction unit bound to the structure that produced it.
type Unit struct {
	Home         uint32 // structure ID
	HomeX, HomeY int
	MoveTimer    float32 // seconds until next move
	ActionTimer  float32 // seconds until next point effect
	Actions      int
}
