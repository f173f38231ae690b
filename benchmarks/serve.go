package benchmarks

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/server"
)

func ServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive environments over HTTP and websockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				f.Server.Addr = addr
			}
			c, err := f.EnvConfig()
			if err != nil {
				return err
			}
			s := server.NewServer(server.Config{
				Addr:    f.Server.Addr,
				GinMode: f.Server.GinMode,
				Env:     c,
			})

			ctx, done := interruptContext()
			defer done()
			errCh := make(chan error, 1)
			go func() {
				errCh <- s.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Printf("[SERVER] [INFO] shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		},
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	return cmd
}
