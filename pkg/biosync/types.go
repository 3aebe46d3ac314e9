package biosync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Model identifies a hardware product whose firmware is tracked.
type Model string

// NewModel normalizes a raw identifier so that case variants compare equal.
func NewModel(raw string) Model {
	return Model(cases.Fold().String(strings.TrimSpace(raw)))
}

func (m Model) String() string {
	return string(m)
}

// Version is a firmware revision taken from a filename suffix.
// NoVersion marks the absence of any local firmware and sorts below every
// real version, including 0.
type Version int

const NoVersion Version = -1

// Known reports whether v holds a real version.
func (v Version) Known() bool {
	return v >= 0
}

func (v Version) String() string {
	if !v.Known() {
		return "none"
	}
	return strconv.Itoa(int(v))
}

func (v Version) MarshalJSON() ([]byte, error) {
	if !v.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(int(v))
}

func (v *Version) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NoVersion
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative version %d", n)
	}
	*v = Version(n)
	return nil
}

// Status is the terminal classification of one model in one run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusNoUpdate Status = "no-update"
	StatusTimeout  Status = "timeout"
	StatusError    Status = "error"
)

// Outcome records what happened to a single model during a run.
type Outcome struct {
	RunID    uuid.UUID     `json:"run_id"`
	Model    Model         `json:"model"`
	Before   Version       `json:"before"`
	After    Version       `json:"after"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Succeeded is true only when the local version strictly advanced.
func (o Outcome) Succeeded() bool {
	return o.After.Known() && o.After > o.Before
}

// String renders the outcome line shown to the operator.
func (o Outcome) String() string {
	if o.Status == StatusSuccess {
		return fmt.Sprintf("SUCCESS: %s (%s -> %s)", o.Model, o.Before, o.After)
	}
	return fmt.Sprintf("FAILED: %s (%s)", o.Model, o.Detail)
}

// Stats are the running counters of a batch. Failed always equals
// NoUpdate + Timeout + Errors.
type Stats struct {
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`

	NoUpdate int `json:"no_update"`
	Timeout  int `json:"timeout"`
	Errors   int `json:"errors"`
}

func (s *Stats) record(o Outcome) {
	s.Processed++
	switch o.Status {
	case StatusSuccess:
		s.Success++
		return
	case StatusNoUpdate:
		s.NoUpdate++
	case StatusTimeout:
		s.Timeout++
	default:
		s.Errors++
	}
	s.Failed++
}

// Report is the result of one engine run.
type Report struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Stats      Stats     `json:"stats"`
	Outcomes   []Outcome `json:"outcomes"`
	Cancelled  bool      `json:"cancelled"`
}

// ProgressFunc receives every finalized outcome together with the stats
// that already account for it.
type ProgressFunc func(outcome Outcome, stats Stats)

// StartFunc is told which model is about to be processed; step counts from 1.
type StartFunc func(model Model, step, total int)
