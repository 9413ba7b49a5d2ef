package cycle

import (
	"telemetry-node/types"
)

// Kind classifies how a cycle ended.
type Kind uint8

const (
	Success Kind = iota
	NetworkFailure
	TimeSyncFailure
	SensorFailure
	TransmitFailure
	// SlotSkipped: the node woke outside an allowed slot. Not a failure.
	SlotSkipped
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NetworkFailure:
		return "network_failure"
	case TimeSyncFailure:
		return "time_sync_failure"
	case SensorFailure:
		return "sensor_failure"
	case TransmitFailure:
		return "transmit_failure"
	case SlotSkipped:
		return "slot_skipped"
	}
	return "unknown"
}

// Failed reports whether k sends the node into a fallback sleep.
func (k Kind) Failed() bool {
	return k != Success && k != SlotSkipped
}

// State is a step of the cycle pipeline.
type State uint8

const (
	Start State = iota
	NetworkUp
	TimeSynced
	SlotChecked
	SensorRead
	Transmitted
	SleepScheduled
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case NetworkUp:
		return "network_up"
	case TimeSynced:
		return "time_synced"
	case SlotChecked:
		return "slot_checked"
	case SensorRead:
		return "sensor_read"
	case Transmitted:
		return "transmitted"
	case SleepScheduled:
		return "sleep_scheduled"
	}
	return "unknown"
}

// Outcome is the result of one cycle.
type Outcome struct {
	Kind Kind
	// Code is the store's status for TransmitFailure (<= 0: no answer).
	Code int
	// Reading is set once the sensor stage succeeded.
	Reading types.Reading
	// Reached is the last state entered before SleepScheduled.
	Reached State
	Err     error
}
