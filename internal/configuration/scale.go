package configuration

import "time"

type ScaleConfig struct {
	// Model selects the frame grammar and lookup tables, one of the
	// supported scale models.
	Model string `json:"model"`

	Port     string `json:"port"`
	BaudRate int    `json:"baudRate"`

	// Timeout bounds a single poll; zero uses the model default.
	Timeout time.Duration `json:"timeout"`

	// StableReadingLength is the number of consecutive matching readings
	// required to infer stability for scales without a hardware flag.
	StableReadingLength int `json:"stableReadingLength"`

	// StatusMapVersion selects the status-code mapping table, preserving
	// compatibility with earlier deployments.
	StatusMapVersion int `json:"statusMapVersion"`
}
