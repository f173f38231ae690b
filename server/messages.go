package server

import "github.com/zeu5/miniblocks/blocks"

// Observation is the wire form of blocks.Observation
type Observation struct {
	Shape [3]int `json:"shape"`
	Data  []int  `json:"data"`
	Hash  string `json:"hash"`
}

func newObservation(o *blocks.Observation) Observation {
	return Observation{
		Shape: o.Shape(),
		Data:  o.Ints(),
		Hash:  o.Hash(),
	}
}

type createRequest struct {
	Seed        *uint64 `json:"seed"`
	Layout      string  `json:"layout"`
	AgentMode   string  `json:"agent_mode"`
	ViewSize    *int    `json:"view_size"`
	RandomStart bool    `json:"random_start"`
}

type createResponse struct {
	ID          string          `json:"id"`
	Observation Observation     `json:"observation"`
	Metadata    blocks.Metadata `json:"metadata"`
}

type resetRequest struct {
	RandomStart bool `json:"random_start"`
}

type resetResponse struct {
	Observation Observation `json:"observation"`
}

// stepRequest is also the websocket message, Reset takes precedence over Action
type stepRequest struct {
	Action      string `json:"action"`
	Reset       bool   `json:"reset,omitempty"`
	RandomStart bool   `json:"random_start,omitempty"`
}

type stepResponse struct {
	Observation Observation    `json:"observation"`
	Reward      float64        `json:"reward"`
	Done        bool           `json:"done"`
	Info        map[string]any `json:"info"`
	Step        int            `json:"step"`
	Event       string         `json:"event"`
}

type errorResponse struct {
	Error string `json:"error"`
}
