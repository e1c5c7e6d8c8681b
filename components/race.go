package components

// Driver links a race entity to the controller evaluating it.
type Driver struct {
	Slot int // index into the race's controller list
}

// Status tracks an entity's episode progress inside a race.
type Status struct {
	Phase    Phase
	Steps    int
	Contacts []Cell // colliding cells from the terminal tick
}
