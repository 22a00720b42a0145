package scale

import "fmt"

// Status is the device state reported by (or inferred for) a scale,
// normalized across all supported models.
type Status int

const (
	StatusStable       Status = 0
	StatusUnstable     Status = 1
	StatusOverload     Status = 2
	StatusError        Status = 3
	StatusModelNumber  Status = 4
	StatusSerialNumber Status = 5
	StatusAcknowledge  Status = 6
	StatusUnderload    Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusStable:
		return "STABLE"
	case StatusUnstable:
		return "UNSTABLE"
	case StatusOverload:
		return "OVERLOAD"
	case StatusError:
		return "ERROR"
	case StatusModelNumber:
		return "MODEL_NUMBER"
	case StatusSerialNumber:
		return "SERIAL_NUMBER"
	case StatusAcknowledge:
		return "ACKNOWLEDGE"
	case StatusUnderload:
		return "UNDERLOAD"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsNominal reports whether the status allows the control loop to keep
// running. Overload, underload and error states force the fail-safe path.
func (s Status) IsNominal() bool {
	switch s {
	case StatusOverload, StatusUnderload, StatusError:
		return false
	}
	return true
}

// statusMap maps the raw status code of a scale frame to a normalized Status.
// Adding support for a new scale model means adding a map, not control logic.
type statusMap map[string]Status

// andStatusMaps contains the status maps for A&D scales, keyed by the
// statusMapVersion config value. Version 1 predates underload reporting and
// maps "OL" without a sign to overload only, which matches older firmware.
var andStatusMaps = map[int]statusMap{
	1: {
		"ST": StatusStable,
		"US": StatusUnstable,
		"OL": StatusOverload,
		"EC": StatusError,
		"AK": StatusAcknowledge,
		"TN": StatusModelNumber,
		"SN": StatusSerialNumber,
	},
	2: {
		"ST": StatusStable,
		"QT": StatusStable,
		"US": StatusUnstable,
		"OL": StatusOverload,
		"UL": StatusUnderload,
		"EC": StatusError,
		"AK": StatusAcknowledge,
		"TN": StatusModelNumber,
		"SN": StatusSerialNumber,
	},
}

// signStatusMap is shared by the sign-prefixed protocols (Creedmoor,
// U.S. Solid). These scales report no stability flag of their own; frames
// always enter the protocol as unstable and stability is inferred later.
var signStatusMap = statusMap{
	"+": StatusUnstable,
	"-": StatusUnstable,
}
