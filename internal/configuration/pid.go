package configuration

type PidConfig struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`

	// StallThreshold collapses computed speeds at or below it to exactly 0,
	// so the motor is never left humming below its physical minimum.
	StallThreshold float64 `json:"stallThreshold"`

	// TunerMode additionally emits raw (unclamped) controller telemetry for
	// external tuning tools. It never affects the applied command.
	TunerMode    bool   `json:"tunerMode"`
	TunerLogPath string `json:"tunerLogPath"`
}
