package types

import (
	"context"
	"time"
)

// EpisodeContext carries the information used and produced by an episode
type EpisodeContext struct {
	Context context.Context
	cancel  context.CancelFunc

	Run        int
	Episode    int
	Experiment string

	Trace       *Trace
	Timesteps   int
	TotalReward float64

	Terminal    bool // a terminal state was reached before the horizon
	HorizonEnd  bool // the horizon was reached
	TimedOut    bool
	Err         error
	RunDuration time.Duration
}

// NewEpisodeContext creates the context of one episode, a zero timeout disables it
func NewEpisodeContext(parent context.Context, run, episode int, experiment string, timeout time.Duration) *EpisodeContext {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	return &EpisodeContext{
		Context:    ctx,
		cancel:     cancel,
		Run:        run,
		Episode:    episode,
		Experiment: experiment,
		Trace:      NewTrace(),
	}
}

// Cancel releases the resources of the context
func (e *EpisodeContext) Cancel() {
	e.cancel()
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
}

// Valid is true when the episode ended without error or timeout
func (e *EpisodeContext) Valid() bool {
	return e.Err == nil && !e.TimedOut
}

// StepContext carries the outcome of a single step back from the environment
type StepContext struct {
	*EpisodeContext

	Step   int
	Reward float64
	Done   bool
	Info   map[string]any
}

func NewStepContext(eCtx *EpisodeContext, step int) *StepContext {
	return &StepContext{
		EpisodeContext: eCtx,
		Step:           step,
		Info:           make(map[string]any),
	}
}
