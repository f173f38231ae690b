package blocks

// Metadata describes the environment to a driver
type Metadata struct {
	GridSize         int        `json:"grid_size"`
	NumActions       int        `json:"num_actions"`
	RewardRange      [2]float64 `json:"reward_range"`
	ObservationShape [3]int     `json:"observation_shape"`
	MaxSteps         int        `json:"max_steps"`
	Layout           string     `json:"layout"`
	AgentMode        string     `json:"agent_mode"`
	Mission          string     `json:"mission"`
}

func (e *Env) Metadata() Metadata {
	return Metadata{
		GridSize:         e.config.Size,
		NumActions:       NumActions,
		RewardRange:      [2]float64{0, BlockReward},
		ObservationShape: e.ObservationShape(),
		MaxSteps:         e.maxSteps,
		Layout:           string(e.config.Layout),
		AgentMode:        e.config.AgentMode.String(),
		Mission:          e.Mission(),
	}
}
