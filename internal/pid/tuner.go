package pid

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/opentrickler/trickle2go/internal/util"
)

const tunerLogHeader = "timestamp,target,current,raw,applied"

// TunerLog records the raw and applied loop outputs of every cycle while
// tuner mode is active. The log is a plain CSV meant to be graphed offline
// when dialing in PID constants for a new motor or powder.
type TunerLog struct {
	path string

	mu   sync.Mutex
	rows []string
}

func NewTunerLog(path string) *TunerLog {
	return &TunerLog{
		path: path,
		rows: []string{tunerLogHeader},
	}
}

// Record appends one sample to the in-memory log.
func (l *TunerLog) Record(now time.Time, target float64, current float64, raw float64, applied int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, fmt.Sprintf(
		"%s,%.4f,%.4f,%.4f,%d",
		now.Format(time.RFC3339Nano), target, current, raw, applied,
	))
}

// Flush writes the accumulated samples to the log file, replacing it in a
// single atomic step so a crash never leaves a half-written file behind.
func (l *TunerLog) Flush() error {
	l.mu.Lock()
	content := strings.Join(l.rows, "\n") + "\n"
	l.mu.Unlock()
	return util.WriteFileAtomic(content, l.path)
}
