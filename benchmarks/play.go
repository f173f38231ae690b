package benchmarks

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/blocks"
)

type stepper interface {
	Step(blocks.Action) (blocks.StepResult, error)
	String() string
}

// Play steps the environment through the actions and prints the grid after each step
func Play(c blocks.Config, actions []blocks.Action, other bool) error {
	env, err := blocks.NewEnv(c)
	if err != nil {
		return err
	}
	var s stepper = env
	if other {
		source, err := blocks.NewRandomSource(c.Seed+1, nil)
		if err != nil {
			return err
		}
		s = blocks.NewOtherAgentEnv(env, source)
	}

	fmt.Println(env.Mission())
	fmt.Println(s.String())
	total := 0.0
	for i, a := range actions {
		res, err := s.Step(a)
		if errors.Is(err, blocks.ErrEpisodeTerminated) {
			fmt.Printf("episode terminated after %d steps, ignoring %d actions\n", i, len(actions)-i)
			break
		} else if err != nil {
			return err
		}
		total += res.Reward
		fmt.Printf("\nstep %d: %s reward=%.4f done=%v event=%s\n", env.StepCount(), a, res.Reward, res.Done, env.LastEvent())
		fmt.Println(s.String())
	}
	fmt.Printf("\ntotal reward %.4f\n", total)
	return nil
}

func PlayCommand() *cobra.Command {
	var actions, layout string
	var size int
	var other, randomStart bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Step an environment with a list of actions",
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
			if cmd.Flags().Changed("random-start") {
				f.Env.RandomStart = randomStart
			}
			c, err := f.EnvConfig()
			if err != nil {
				return err
			}
			parsed, err := blocks.ParseActions(actions)
			if err != nil {
				return err
			}
			return Play(c, parsed, other)
		},
	}
	cmd.PersistentFlags().StringVarP(&actions, "actions", "a", "", "Comma separated actions, e.g. r,r,d,none")
	cmd.PersistentFlags().StringVarP(&layout, "layout", "l", "empty", "Layout: empty, fam or maze")
	cmd.PersistentFlags().IntVar(&size, "size", 8, "Side of the grid")
	cmd.PersistentFlags().BoolVar(&other, "other", false, "Let a random agent act instead of the given actions")
	cmd.PersistentFlags().BoolVar(&randomStart, "random-start", false, "Start on a random empty cell")
	return cmd
}
