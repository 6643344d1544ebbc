package domain

import "errors"

// ErrBusy is returned when a submission arrives while a previous turn
// is still in flight
var ErrBusy = errors.New("a response is already streaming")

// StreamState is the lifecycle of a session's active turn
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamAwaitingUpstream
	StreamStreaming
	StreamError
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamAwaitingUpstream:
		return "awaiting_upstream"
	case StreamStreaming:
		return "streaming"
	case StreamError:
		return "error"
	}
	return "unknown"
}

// TrainingPhase is the orthogonal training-mode track of a session
type TrainingPhase int

const (
	TrainingNone TrainingPhase = iota
	TrainingInProgress
	TrainingComplete
)

func (p TrainingPhase) String() string {
	switch p {
	case TrainingNone:
		return "not_training"
	case TrainingInProgress:
		return "training_in_progress"
	case TrainingComplete:
		return "training_complete"
	}
	return "unknown"
}

// TurnState makes illegal turn combinations unrepresentable: a new
// submission is only accepted from Idle or Error, so re-entrant
// submissions fail with ErrBusy instead of cancelling the prior stream.
type TurnState struct {
	stream   StreamState
	training TrainingPhase
	round    int
}

// Begin moves the turn into AwaitingUpstream. It fails with ErrBusy
// while a turn is already in flight.
func (t *TurnState) Begin() error {
	if t.Busy() {
		return ErrBusy
	}
	t.stream = StreamAwaitingUpstream
	return nil
}

// Busy reports whether a turn is currently in flight. Mutations of the
// conversation must be rejected while it returns true.
func (t *TurnState) Busy() bool {
	return t.stream == StreamAwaitingUpstream || t.stream == StreamStreaming
}

// MarkStreaming records that the upstream response arrived and deltas
// are flowing
func (t *TurnState) MarkStreaming() {
	if t.stream == StreamAwaitingUpstream {
		t.stream = StreamStreaming
	}
}

// Finish returns the turn to Idle after successful completion
func (t *TurnState) Finish() {
	t.stream = StreamIdle
}

// Fail records a failed turn. A new submission may begin afterwards.
func (t *TurnState) Fail() {
	t.stream = StreamError
}

// Stream returns the current stream state
func (t *TurnState) Stream() StreamState {
	return t.stream
}

// BeginTrainingRound starts (or continues) the training track and
// returns the new round number
func (t *TurnState) BeginTrainingRound() int {
	t.training = TrainingInProgress
	t.round++
	return t.round
}

// CompleteTraining marks the training track finished
func (t *TurnState) CompleteTraining() {
	if t.training == TrainingInProgress {
		t.training = TrainingComplete
	}
}

// Training returns the training phase and round counter
func (t *TurnState) Training() (TrainingPhase, int) {
	return t.training, t.round
}
