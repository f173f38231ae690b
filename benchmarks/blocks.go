package benchmarks

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/blocks"
	"github.com/zeu5/miniblocks/config"
	"github.com/zeu5/miniblocks/policies"
	"github.com/zeu5/miniblocks/store"
	"github.com/zeu5/miniblocks/types"
)

// stores opens the configured episode stores. The recorder is nil when none is configured.
type stores struct {
	recorder types.EpisodeRecorder
	sqlite   *store.SQLiteStore
	redis    *store.RedisStore
}

func openStores(ctx context.Context, f *config.File) (*stores, error) {
	s := &stores{}
	recorders := store.Multi{}
	if f.Store.SQLitePath != "" {
		db, err := store.OpenSQLite(f.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.sqlite = db
		recorders = append(recorders, db)
	}
	if f.Store.RedisAddr != "" {
		r := store.NewRedisStore(f.Store.RedisAddr, f.Store.RedisPrefix)
		if err := r.Ping(ctx); err != nil {
			r.Close()
			s.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", f.Store.RedisAddr, err)
		}
		s.redis = r
		recorders = append(recorders, r)
	}
	if len(recorders) > 0 {
		s.recorder = recorders
	}
	return s, nil
}

// printStats reports what the SQLite store aggregated over the comparison
func (s *stores) printStats(ctx context.Context) {
	if s.sqlite == nil {
		return
	}
	stats, err := s.sqlite.Stats(ctx)
	if err != nil {
		log.Printf("[EXPERIMENT] [ERROR] reading stats: %v", err)
		return
	}
	for _, st := range stats {
		fmt.Printf("%s: %d episodes, %d terminal, mean reward %.4f, mean steps %.2f\n",
			st.Experiment, st.Episodes, st.Terminal, st.MeanReward, st.MeanSteps)
	}
}

func (s *stores) Close() {
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			log.Printf("[EXPERIMENT] [ERROR] closing sqlite: %v", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Printf("[EXPERIMENT] [ERROR] closing redis: %v", err)
		}
	}
}

// pushBlock walks into a block next to the agent, the wrapped policy decides everywhere else
func pushBlock() policies.StateAction {
	return func(s types.State, actions []types.Action) (types.Action, bool) {
		bs, ok := s.(*blocks.State)
		if !ok {
			return nil, false
		}
		for _, b := range bs.Blocks {
			for _, m := range []*blocks.Movement{blocks.MovementRight, blocks.MovementDown, blocks.MovementLeft, blocks.MovementUp} {
				if bs.Agent.Add(m.Action.Vec()) == b {
					return policies.Pick(m.Hash())(actions)
				}
			}
		}
		return nil, false
	}
}

func newRLEnv(c blocks.Config) (*blocks.RLEnv, error) {
	env, err := blocks.NewEnv(c)
	if err != nil {
		return nil, err
	}
	return blocks.NewRLEnv(env), nil
}

// BlocksExploration compares a random policy with the exploration policies on one layout
func BlocksExploration(f *config.File, ctx context.Context) error {
	envConfig, err := f.EnvConfig()
	if err != nil {
		return err
	}
	timeout, err := f.Timeout()
	if err != nil {
		return err
	}
	st, err := openStores(ctx, f)
	if err != nil {
		return err
	}
	defer st.Close()

	saveFile := f.Experiment.SavePath
	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       f.Experiment.Runs,
		Episodes:   f.Experiment.Episodes,
		Horizon:    f.Experiment.Horizon,
		RecordPath: saveFile,
		Timeout:    timeout,
		// record flags
		RecordTraces: f.Experiment.RecordTraces,
		RecordTimes:  true,
		RecordPolicy: f.Experiment.RecordPolicy,

		Recorder: st.recorder,
	})

	stopProfiling := startProfiling(saveFile)
	defer stopProfiling()

	c.AddAnalysis("Coverage", types.NewCoverageAnalyzer(blocks.PositionAbstractor()), types.CoveragePlotter(path.Join(saveFile, "coverage")))
	c.AddAnalysis("Rewards", types.NewRewardAnalyzer(), types.RewardPlotter(path.Join(saveFile, "rewards")))
	c.AddAnalysis("Visits", blocks.NewVisitAnalyzer(envConfig.Size), blocks.GridPlotComparator(path.Join(saveFile, "visits")))
	c.AddAnalysis("Graph", types.NewVisitGraphAnalyzer(blocks.PositionAbstractor()), types.VisitGraphRecorder(path.Join(saveFile, "graphs")))
	c.AddAnalysis("DoorReached", types.NewMonitorAnalyzer(blocks.DoorReachedMonitor()), types.MonitorComparator("DoorReached"))
	c.AddAnalysis("GoalReached", types.NewMonitorAnalyzer(blocks.GoalReachedMonitor()), types.MonitorComparator("GoalReached"))

	policySeed := envConfig.Seed + 1
	pushing := policies.NewStrictPolicy(types.NewRandomPolicy(policySeed))
	pushing.AddPolicy(pushBlock())

	experiments := []struct {
		name   string
		policy types.Policy
	}{
		{"Random", types.NewRandomPolicy(policySeed)},
		{"RandomPush", pushing},
		{"BonusMax", policies.NewBonusPolicyGreedy(0.1, 0.99, 0.05, true, policySeed)},
		{"BonusSoftMax", policies.NewBonusPolicySoftMax(0.1, 0.99, 1, policySeed)},
		{"Guided", policies.NewGuidedPolicy(
			[]*types.Monitor{blocks.DoorReachedMonitor(), blocks.GoalReachedMonitor()},
			0.1, 0.99, 0.05, policySeed,
		)},
	}
	for _, e := range experiments {
		env, err := newRLEnv(envConfig)
		if err != nil {
			return err
		}
		c.AddExperiment(types.NewExperiment(e.name, e.policy, env))
	}

	c.Run(ctx)
	st.printStats(ctx)
	return nil
}

func BlocksCommand() *cobra.Command {
	var layout string
	var size int

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Compare exploration policies on a block pushing layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("layout") {
				f.Env.Layout = layout
			}
			if cmd.Flags().Changed("size") {
				f.Env.Size = size
			}

			ctx, done := interruptContext()
			defer done()
			return BlocksExploration(f, ctx)
		},
	}
	cmd.PersistentFlags().StringVarP(&layout, "layout", "l", "empty", "Layout to explore: empty, fam or maze")
	cmd.PersistentFlags().IntVar(&size, "size", 8, "Side of the grid")
	return cmd
}
