package benchmarks

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/blocks"
)

// optionalInt maps the -1 flag default to a sampled parameter
func optionalInt(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

func MazeCommand() *cobra.Command {
	var rotation, d1, d2, offset, size int
	var hidden bool

	cmd := &cobra.Command{
		Use:   "maze",
		Short: "Print a generated maze",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f.Env.Layout = string(blocks.LayoutMaze)
			f.Env.Size = size
			f.Env.Maze = blocks.MazeParams{
				D1:         optionalInt(d1),
				D2:         optionalInt(d2),
				Offset:     optionalInt(offset),
				Rotation:   optionalInt(rotation),
				HiddenGoal: hidden,
			}
			c, err := f.EnvConfig()
			if err != nil {
				return err
			}

			maze := &blocks.MazeLayout{Params: c.Maze}
			env, err := blocks.NewEnvWithGenerator(c, maze)
			if err != nil {
				return err
			}
			layout := env.Layout()
			fmt.Printf("d1=%d d2=%d offset=%d rotation=%d\n", maze.D1, maze.D2, maze.Offset, layout.Rotation)
			fmt.Printf("doors=%v block=%s goal=%s\n", maze.Doors, maze.BlockPos, maze.GoalPos)
			fmt.Println(env.String())
			return nil
		},
	}
	cmd.PersistentFlags().IntVarP(&rotation, "rotation", "r", -1, "Quarter turns applied to the maze, -1 samples it")
	cmd.PersistentFlags().IntVar(&d1, "d1", -1, "Side of the first room (5 or 6), -1 samples it")
	cmd.PersistentFlags().IntVar(&d2, "d2", -1, "Side of the goal room (5 or 6), -1 samples it")
	cmd.PersistentFlags().IntVar(&offset, "offset", -1, "Vertical offset of the goal room (0 or 1), -1 samples it")
	cmd.PersistentFlags().IntVar(&size, "size", 12, "Side of the grid")
	cmd.PersistentFlags().BoolVar(&hidden, "hidden", false, "Hide the goal from observations")
	return cmd
}
