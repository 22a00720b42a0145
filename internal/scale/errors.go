package scale

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates that no complete frame arrived within the configured
// poll timeout. The control loop treats this as a fault and fails safe.
var ErrTimeout = errors.New("no scale data received within timeout")

// ParseError indicates a malformed frame. Parse errors are recoverable: the
// corrupt frame is discarded and parsing resynchronizes on the next frame
// delimiter.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed scale frame %q: %s", e.Line, e.Reason)
}

// IsParseError reports whether err is a recoverable frame parse error.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
