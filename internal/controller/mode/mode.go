package mode

// Mode is the operating mode of the trickle control loop.
type Mode int

const (
	// Idle means the motor is off and the loop is waiting for work.
	Idle Mode = iota
	// Auto means the loop is actively trickling towards the target weight.
	Auto
	// Manual means the motor runs at a fixed user-selected speed.
	Manual
	// Done means the target weight was reached and is awaiting acknowledgement.
	Done
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "IDLE"
	case Auto:
		return "AUTO"
	case Manual:
		return "MANUAL"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}
