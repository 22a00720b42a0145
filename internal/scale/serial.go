package scale

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/opentrickler/trickle2go/internal/ui"
	serial "go.bug.st/serial"
)

// Scale is a digital scale the control loop can poll for readings.
type Scale interface {
	Model() *Model

	// Poll returns the next parsed reading. It fails with ErrTimeout when no
	// frame arrives within the configured timeout and with a *ParseError
	// when the next frame is garbled.
	Poll(ctx context.Context) (Reading, error)

	// ChangeUnit asks the scale to switch its unit of weight, equivalent to
	// pressing the mode button. The change is confirmed by the unit of
	// subsequent readings, not by this call.
	ChangeUnit() error

	Close() error
}

// unitChangeCmd is the mode button command of the supported scales.
var unitChangeCmd = []byte("U\r\n")

// unitChangeSettle is how long a scale takes to apply a unit switch.
const unitChangeSettle = 1 * time.Second

type serialScale struct {
	model   *Model
	parser  *Parser
	timeout time.Duration

	port  serial.Port
	lines chan string
	errs  chan error
	done  chan struct{}
}

// SerialConfig holds the transport settings for a serial scale.
type SerialConfig struct {
	Port             string
	BaudRate         int
	Timeout          time.Duration
	StatusMapVersion int
}

// OpenSerial opens the serial port and starts the background frame reader.
// Zero values in the config fall back to the model defaults.
func OpenSerial(model *Model, config SerialConfig) (Scale, error) {
	baudRate := config.BaudRate
	if baudRate <= 0 {
		baudRate = model.DefaultBaudRate
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = model.DefaultTimeout
	}

	parser, err := NewParser(model, config.StatusMapVersion)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(config.Port, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("cannot open scale port %s: %w", config.Port, err)
	}

	s := &serialScale{
		model:   model,
		parser:  parser,
		timeout: timeout,
		port:    port,
		lines:   make(chan string, 16),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	go s.readLines()

	return s, nil
}

// readLines pumps delimited frames from the serial port into the line
// channel until the port is closed. Frames arriving faster than they are
// polled are dropped, keeping Poll latency bounded.
func (s *serialScale) readLines() {
	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			select {
			case s.errs <- err:
			case <-s.done:
			}
			return
		}
		select {
		case s.lines <- line:
		default:
			ui.Debug("Scale frame dropped, poll loop is lagging")
		}
	}
}

func (s *serialScale) Model() *Model {
	return s.model
}

func (s *serialScale) Poll(ctx context.Context) (Reading, error) {
	// Drain frames buffered while the previous cycle was busy so the
	// reading reflects the present, not the backlog.
	s.drain()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case line := <-s.lines:
		return s.parser.ParseFrame(line, time.Now())
	case err := <-s.errs:
		return Reading{}, fmt.Errorf("scale read failed: %w", err)
	case <-timer.C:
		return Reading{}, ErrTimeout
	case <-ctx.Done():
		return Reading{}, ctx.Err()
	}
}

func (s *serialScale) drain() {
	for {
		select {
		case <-s.lines:
		default:
			return
		}
	}
}

func (s *serialScale) ChangeUnit() error {
	if !s.model.SupportsUnitChange {
		ui.Info("Scale model %s does not support changing units through RS232", s.model.Name)
		return nil
	}
	if _, err := s.port.Write(unitChangeCmd); err != nil {
		return fmt.Errorf("cannot send unit change command: %w", err)
	}
	// Give the scale time to apply the switch before the next poll.
	time.Sleep(unitChangeSettle)
	return nil
}

func (s *serialScale) Close() error {
	close(s.done)
	return s.port.Close()
}
