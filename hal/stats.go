package hal

import (
	"fmt"

	"github.com/google/uuid"
)

// Stats is the simulated machine's timebase and event counters.
//
// TotalTicks is the clock every scheduling decision reads; it only moves
// forward, either by executing (system ticks) or by idling to the next
// pending interrupt (idle ticks).
type Stats struct {
	bootID uuid.UUID

	totalTicks  int64
	systemTicks int64
	idleTicks   int64

	numContextSwitches  int64
	numThreadsCreated   int64
	numThreadsDestroyed int64
	numPreemptRequests  int64
}

// NewStats creates a zeroed counter set with a fresh boot ID.
func NewStats() *Stats {
	return &Stats{bootID: uuid.New()}
}

// BootID identifies this machine run in log output.
func (s *Stats) BootID() uuid.UUID { return s.bootID }

// TotalTicks returns the current simulated time.
func (s *Stats) TotalTicks() int64 { return s.totalTicks }

// SystemTicks returns time spent executing.
func (s *Stats) SystemTicks() int64 { return s.systemTicks }

// IdleTicks returns time skipped while the CPU was idle.
func (s *Stats) IdleTicks() int64 { return s.idleTicks }

// AdvanceSystem moves the clock forward by n executing ticks.
func (s *Stats) AdvanceSystem(n int64) {
	s.totalTicks += n
	s.systemTicks += n
}

// AdvanceIdle moves the clock forward by n idle ticks.
func (s *Stats) AdvanceIdle(n int64) {
	s.totalTicks += n
	s.idleTicks += n
}

func (s *Stats) NoteContextSwitch()   { s.numContextSwitches++ }
func (s *Stats) NoteThreadCreated()   { s.numThreadsCreated++ }
func (s *Stats) NoteThreadDestroyed() { s.numThreadsDestroyed++ }
func (s *Stats) NotePreemptRequest()  { s.numPreemptRequests++ }

// ContextSwitches returns the number of genuine thread switches.
func (s *Stats) ContextSwitches() int64 { return s.numContextSwitches }

// ThreadsCreated returns the number of threads ever constructed.
func (s *Stats) ThreadsCreated() int64 { return s.numThreadsCreated }

// ThreadsDestroyed returns the number of threads reclaimed.
func (s *Stats) ThreadsDestroyed() int64 { return s.numThreadsDestroyed }

// PreemptRequests returns the number of preemptions requested.
func (s *Stats) PreemptRequests() int64 { return s.numPreemptRequests }

// Summary renders the counters for end-of-run reporting.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"boot %s: ticks %d (system %d, idle %d), switches %d, threads %d/%d created/destroyed, preempts %d",
		s.bootID, s.totalTicks, s.systemTicks, s.idleTicks,
		s.numContextSwitches, s.numThreadsCreated, s.numThreadsDestroyed,
		s.numPreemptRequests)
}
