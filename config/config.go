package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/zeu5/miniblocks/blocks"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaJSON string

// EnvSection configures the environment
type EnvSection struct {
	Size              int               `yaml:"size"`
	StepLimitFactor   int               `yaml:"step_limit_factor"`
	SeeThroughWalls   bool              `yaml:"see_through_walls"`
	ViewSize          int               `yaml:"view_size"`
	AgentMode         string            `yaml:"agent_mode"`
	Layout            string            `yaml:"layout"`
	Maze              blocks.MazeParams `yaml:"maze"`
	Seed              uint64            `yaml:"seed"`
	RandomStart       bool              `yaml:"random_start"`
	AutoReset         bool              `yaml:"auto_reset"`
	MaxPlacementTries int               `yaml:"max_placement_tries"`
}

// ExperimentSection configures the experiment harness
type ExperimentSection struct {
	Runs         int    `yaml:"runs"`
	Episodes     int    `yaml:"episodes"`
	Horizon      int    `yaml:"horizon"`
	SavePath     string `yaml:"save"`
	Timeout      string `yaml:"timeout"`
	RecordTraces bool   `yaml:"record_traces"`
	RecordPolicy bool   `yaml:"record_policy"`
}

// StoreSection selects where episode summaries go, empty values disable a store
type StoreSection struct {
	SQLitePath  string `yaml:"sqlite"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type ServerSection struct {
	Addr    string `yaml:"addr"`
	GinMode string `yaml:"gin_mode"`
}

// File is the yaml configuration file
type File struct {
	Env        EnvSection        `yaml:"env"`
	Experiment ExperimentSection `yaml:"experiment"`
	Store      StoreSection      `yaml:"store"`
	Server     ServerSection     `yaml:"server"`
}

// Default mirrors blocks.DefaultConfig
func Default() *File {
	d := blocks.DefaultConfig()
	return &File{
		Env: EnvSection{
			Size:              d.Size,
			StepLimitFactor:   d.StepLimitFactor,
			SeeThroughWalls:   d.SeeThroughWalls,
			ViewSize:          d.ViewSize,
			AgentMode:         d.AgentMode.String(),
			Layout:            string(d.Layout),
			Seed:              d.Seed,
			MaxPlacementTries: d.MaxPlacementTries,
		},
		Experiment: ExperimentSection{
			Runs:     1,
			Episodes: 1000,
			Horizon:  100,
			SavePath: "results",
		},
		Store: StoreSection{
			RedisPrefix: "miniblocks",
		},
		Server: ServerSection{
			Addr:    ":8080",
			GinMode: "release",
		},
	}
}

var schema = jsonschema.MustCompileString("config.schema.json", schemaJSON)

// Load reads the yaml file over the defaults, validates it and applies the
// MINIBLOCKS_* environment overrides. An empty path only applies the overrides.
func Load(path string) (*File, error) {
	f := Default()
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := Parse(bs, f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("[CONFIG] [INFO] .env file not found or could not be loaded: %v", err)
	}
	if err := f.applyEnv(); err != nil {
		return nil, err
	}
	return f, nil
}

// Parse validates the yaml document against the schema and decodes it into f
func Parse(bs []byte, f *File) error {
	var doc any
	if err := yaml.Unmarshal(bs, &doc); err != nil {
		return fmt.Errorf("%w: %v", blocks.ErrConfig, err)
	}
	if doc != nil {
		if err := validate(doc); err != nil {
			return err
		}
	}
	if err := yaml.Unmarshal(bs, f); err != nil {
		return fmt.Errorf("%w: %v", blocks.ErrConfig, err)
	}
	return nil
}

// validate round trips the yaml document through json, the schema expects json values
func validate(doc any) error {
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", blocks.ErrConfig, err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", blocks.ErrConfig, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", blocks.ErrConfig, err)
	}
	return nil
}

func (f *File) applyEnv() error {
	ints := map[string]*int{
		"MINIBLOCKS_SIZE":      &f.Env.Size,
		"MINIBLOCKS_VIEW_SIZE": &f.Env.ViewSize,
		"MINIBLOCKS_RUNS":      &f.Experiment.Runs,
		"MINIBLOCKS_EPISODES":  &f.Experiment.Episodes,
		"MINIBLOCKS_HORIZON":   &f.Experiment.Horizon,
	}
	for key, dst := range ints {
		if value, ok := os.LookupEnv(key); ok {
			v, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: %s must be an integer: %v", blocks.ErrConfig, key, err)
			}
			*dst = v
		}
	}
	if value, ok := os.LookupEnv("MINIBLOCKS_SEED"); ok {
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: MINIBLOCKS_SEED must be an unsigned integer: %v", blocks.ErrConfig, err)
		}
		f.Env.Seed = v
	}
	strs := map[string]*string{
		"MINIBLOCKS_LAYOUT":       &f.Env.Layout,
		"MINIBLOCKS_AGENT_MODE":   &f.Env.AgentMode,
		"MINIBLOCKS_SAVE":         &f.Experiment.SavePath,
		"MINIBLOCKS_SQLITE":       &f.Store.SQLitePath,
		"MINIBLOCKS_REDIS_ADDR":   &f.Store.RedisAddr,
		"MINIBLOCKS_REDIS_PREFIX": &f.Store.RedisPrefix,
		"MINIBLOCKS_SERVER_ADDR":  &f.Server.Addr,
		"GIN_MODE":                &f.Server.GinMode,
	}
	for key, dst := range strs {
		if value, ok := os.LookupEnv(key); ok {
			*dst = value
		}
	}
	return nil
}

// EnvConfig converts the env section to a validated blocks.Config
func (f *File) EnvConfig() (blocks.Config, error) {
	mode, err := blocks.ParseAgentMode(f.Env.AgentMode)
	if err != nil {
		return blocks.Config{}, err
	}
	c := blocks.Config{
		Size:              f.Env.Size,
		StepLimitFactor:   f.Env.StepLimitFactor,
		SeeThroughWalls:   f.Env.SeeThroughWalls,
		ViewSize:          f.Env.ViewSize,
		AgentMode:         mode,
		Layout:            blocks.LayoutKind(f.Env.Layout),
		Maze:              f.Env.Maze,
		Seed:              f.Env.Seed,
		RandomStart:       f.Env.RandomStart,
		AutoReset:         f.Env.AutoReset,
		MaxPlacementTries: f.Env.MaxPlacementTries,
	}
	if err := c.Validate(); err != nil {
		return blocks.Config{}, err
	}
	return c, nil
}

// Timeout of an episode, zero when unset
func (f *File) Timeout() (time.Duration, error) {
	if f.Experiment.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Experiment.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout: %v", blocks.ErrConfig, err)
	}
	return d, nil
}
