package blocks

import "errors"

var (
	// ErrInvalidAction is returned by Step for an action outside the action space
	ErrInvalidAction = errors.New("invalid action")
	// ErrGeneration is returned when no random start cell is found within the attempt budget
	ErrGeneration = errors.New("generation failed")
	// ErrContractViolation signals a layout generator bug: no start pose,
	// or a start pose on a cell the agent cannot occupy
	ErrContractViolation = errors.New("layout contract violation")
	// ErrEpisodeTerminated is returned by Step on a terminated episode unless auto reset is enabled
	ErrEpisodeTerminated = errors.New("episode terminated, call Reset")
	// ErrConfig is returned for an unusable configuration
	ErrConfig = errors.New("invalid config")
)
