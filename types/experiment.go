package types

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zeu5/miniblocks/util"
)

// EpisodeSummary is the outcome of one episode handed to the recorder
type EpisodeSummary struct {
	ID          string        `json:"id"`
	Experiment  string        `json:"experiment"`
	Run         int           `json:"run"`
	Episode     int           `json:"episode"`
	Steps       int           `json:"steps"`
	TotalReward float64       `json:"total_reward"`
	Terminal    bool          `json:"terminal"`
	TimedOut    bool          `json:"timed_out"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	RecordedAt  time.Time     `json:"recorded_at"`
}

// EpisodeRecorder persists episode summaries
type EpisodeRecorder interface {
	RecordEpisode(context.Context, EpisodeSummary) error
}

func summarize(eCtx *EpisodeContext) EpisodeSummary {
	s := EpisodeSummary{
		ID:          uuid.NewString(),
		Experiment:  eCtx.Experiment,
		Run:         eCtx.Run,
		Episode:     eCtx.Episode,
		Steps:       eCtx.Timesteps,
		TotalReward: eCtx.TotalReward,
		Terminal:    eCtx.Terminal,
		TimedOut:    eCtx.TimedOut,
		Duration:    eCtx.RunDuration,
		RecordedAt:  time.Now().UTC(),
	}
	if eCtx.Err != nil {
		s.Error = eCtx.Err.Error()
	}
	return s
}

// one line of the recorded traces
type traceRecord struct {
	Episode int     `json:"episode"`
	Reward  float64 `json:"reward"`
	Steps   *Trace  `json:"steps"`
}

type experimentRunConfig struct {
	// execution configuration
	CurrentRun int
	Episodes   int
	Horizon    int
	Analyzers  []Analyzer
	Timeout    time.Duration
	Context    context.Context

	// thresholds to abort the experiment
	ConsecutiveErrorsAbort int

	// record flags
	RecordTraces bool
	RecordTimes  bool
	RecordPolicy bool
	SavePath     string

	Recorder EpisodeRecorder

	//misc
	LongestExpNameLen int
}

// Experiment encapsulates the different parameters to configure an agent and analyze the traces
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

// Run the experiment for the specified number of episodes
func (e *Experiment) Run(rConfig *experimentRunConfig) {
	select {
	case <-rConfig.Context.Done():
		return
	default:
	}

	var traceWriter *util.JSONLZstdWriter
	if rConfig.RecordTraces {
		traceWriter = util.NewJSONLZstdWriter(path.Join(rConfig.SavePath, "traces"), e.Name+"_"+strconv.Itoa(rConfig.CurrentRun))
		defer traceWriter.Close()
	}

	agent := NewAgent(&AgentConfig{
		Episodes:    rConfig.Episodes,
		Horizon:     rConfig.Horizon,
		Policy:      e.policy,
		Environment: e.environment,
	})

	totalErrors := 0
	totalTimeouts := 0
	totalTerminal := 0
	consecutiveErrors := 0
	executedTimesteps := 0
	episodeTimes := make([]time.Duration, 0)

	EPPadding := len(strconv.Itoa(rConfig.Episodes))
	NamePadding := rConfig.LongestExpNameLen

	for episode := 0; episode < rConfig.Episodes; episode++ {
		select {
		case <-rConfig.Context.Done():
			fmt.Println("")
			return
		default:
		}

		eCtx := NewEpisodeContext(rConfig.Context, rConfig.CurrentRun, episode, e.Name, rConfig.Timeout)
		e.runEpisode(eCtx, agent)
		eCtx.Cancel()

		startingTimesteps := executedTimesteps
		executedTimesteps += eCtx.Timesteps
		episodeTimes = append(episodeTimes, eCtx.RunDuration)

		if eCtx.Err != nil {
			totalErrors += 1
			consecutiveErrors += 1
		} else {
			consecutiveErrors = 0
		}
		if eCtx.TimedOut {
			totalTimeouts += 1
		}
		if eCtx.Valid() && eCtx.Terminal {
			totalTerminal += 1
		}

		if traceWriter != nil {
			if err := traceWriter.Write(traceRecord{Episode: episode, Reward: eCtx.TotalReward, Steps: eCtx.Trace}); err != nil {
				log.Printf("[EXPERIMENT] [ERROR] recording trace of %s episode %d: %v", e.Name, episode, err)
			}
		}

		// analyze the trace, even if the episode timed out or ended with an error
		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, episode, startingTimesteps, e.Name, eCtx.Trace)
		}

		if rConfig.Recorder != nil {
			if err := rConfig.Recorder.RecordEpisode(rConfig.Context, summarize(eCtx)); err != nil {
				log.Printf("[EXPERIMENT] [ERROR] recording summary of %s episode %d: %v", e.Name, episode, err)
			}
		}

		if len(episodeTimes) == 10 {
			if rConfig.RecordTimes {
				e.printEpTimesMs(episodeTimes, rConfig.SavePath)
			}
			episodeTimes = make([]time.Duration, 0)
		}

		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			fmt.Printf("\n Aborting experiment %s : %d consecutive errors (last: %v)\n", e.Name, consecutiveErrors, eCtx.Err)
			break
		}

		// terminal execution display
		fmt.Printf("\rExp:%*s, Eps:%*d/%d, TSteps:%d || Terminal:%*d, TOut:%*d, Err:%*d",
			NamePadding, e.Name, EPPadding, episode+1, rConfig.Episodes, executedTimesteps,
			EPPadding, totalTerminal, EPPadding, totalTimeouts, EPPadding, totalErrors)
	}

	if rConfig.RecordPolicy {
		e.policy.Record(path.Join(rConfig.SavePath, "policies", e.Name+"_"+strconv.Itoa(rConfig.CurrentRun)))
	}

	fmt.Println("")
}

func (e *Experiment) runEpisode(eCtx *EpisodeContext, agent *Agent) {
	start := time.Now()
	defer func() {
		eCtx.RunDuration = time.Since(start)
		if r := recover(); r != nil {
			eCtx.SetError(fmt.Errorf("%v", r))
		}
	}()
	agent.RunEpisode(eCtx)
}

func (e *Experiment) printEpTimesMs(epTimes []time.Duration, basePath string) {
	tMilliseconds := ""
	for _, tm := range epTimes {
		tMilliseconds = fmt.Sprintf("%s%7d, ", tMilliseconds, tm.Milliseconds())
	}
	filePath := path.Join(basePath, "epTimes", e.Name+"_ms.txt")
	util.AppendToFile(filePath, tMilliseconds)
}

// Reset the policy between runs
func (e *Experiment) Reset() {
	e.policy.Reset()
}

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// Run, episode, starting timestep, experiment, trace
	Analyze(int, int, int, string, *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, total episodes, experiment names, datasets
type Comparator func(int, int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(i, _ int, s []string, ds []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int // number of runs
	Episodes int // number of episodes
	Horizon  int // number of steps

	RecordPath string        // path to store the results
	Timeout    time.Duration // timeout for each episode

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int

	// record flags
	RecordTraces bool
	RecordTimes  bool
	RecordPolicy bool

	// receives one summary per episode when set
	Recorder EpisodeRecorder
}

// Comparison contains the different experiments to compare
// The traces obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance and the folders it records into
func NewComparison(config *ComparisonConfig) *Comparison {
	foldersToCreate := []string{""}
	if config.RecordTraces {
		foldersToCreate = append(foldersToCreate, "traces")
	}
	if config.RecordTimes {
		foldersToCreate = append(foldersToCreate, "epTimes")
	}
	if config.RecordPolicy {
		foldersToCreate = append(foldersToCreate, "policies")
	}
	for _, s := range foldersToCreate {
		fldPath := path.Join(config.RecordPath, s)
		if _, err := os.Stat(fldPath); err != nil {
			os.MkdirAll(fldPath, 0777)
		}
	}

	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	cfg := c.cConfig
	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["record_traces"] = cfg.RecordTraces
	out["record_times"] = cfg.RecordTimes
	out["record_policy"] = cfg.RecordPolicy
	if cfg.Timeout != 0 {
		out["timeout"] = cfg.Timeout.String()
	}

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(cfg.RecordPath, "comparison_config.json"), bs, 0644)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) {
	if err := c.recordConfig(); err != nil {
		log.Printf("[COMPARISON] [ERROR] recording config: %v", err)
	}

	longestNameLen := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longestNameLen {
			longestNameLen = len(e.Name)
		}
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		datasets := make(map[string][]DataSet)
		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			e.Run(c.prepareRunConfig(ctx, run, longestNameLen))
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for name, comp := range c.comparators {
			comp(run, c.cConfig.Episodes, names, datasets[name])
		}
	}
}

// prepare the run configuration for the experiment
func (c *Comparison) prepareRunConfig(ctx context.Context, run int, longestExpNameLen int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:             run,
		Episodes:               c.cConfig.Episodes,
		Horizon:                c.cConfig.Horizon,
		Analyzers:              make([]Analyzer, 0),
		Timeout:                c.cConfig.Timeout,
		Context:                ctx,
		ConsecutiveErrorsAbort: c.cConfig.ConsecutiveErrorsAbort,
		RecordTraces:           c.cConfig.RecordTraces,
		RecordTimes:            c.cConfig.RecordTimes,
		RecordPolicy:           c.cConfig.RecordPolicy,
		SavePath:               c.cConfig.RecordPath,
		Recorder:               c.cConfig.Recorder,
		LongestExpNameLen:      longestExpNameLen,
	}
	if rCfg.ConsecutiveErrorsAbort == 0 {
		rCfg.ConsecutiveErrorsAbort = 10
	}

	for _, a := range c.analyzers {
		rCfg.Analyzers = append(rCfg.Analyzers, a)
	}
	return rCfg
}
