package benchmarks

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/config"
	"github.com/zeu5/miniblocks/explorer"
)

var (
	episodes   int
	horizon    int
	saveFile   string
	runs       int
	configPath string
	seed       uint64
	cpuprofile string
	memprofile string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "miniblocks",
		Short: "Block pushing grid world and exploration experiments",
	}
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&horizon, "horizon", 100, "Horizon of each episode")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 1337, "Seed of the environment")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file under the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a heap profile to this file under the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(BlocksCommand())
	rootCommand.AddCommand(MazeCommand())
	rootCommand.AddCommand(PlayCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(explorer.ExploreCommand())
	return rootCommand
}

// loadConfig reads the config file, flags set on the command line win
func loadConfig(cmd *cobra.Command) (*config.File, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("episodes") {
		f.Experiment.Episodes = episodes
	}
	if flags.Changed("horizon") {
		f.Experiment.Horizon = horizon
	}
	if flags.Changed("runs") {
		f.Experiment.Runs = runs
	}
	if flags.Changed("save") {
		f.Experiment.SavePath = saveFile
	}
	if flags.Changed("seed") {
		f.Env.Seed = seed
	}
	return f, nil
}

// interruptContext is cancelled on SIGINT or when done is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
