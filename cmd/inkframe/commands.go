package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1set/inkframe"
	"github.com/1set/inkframe/internal/logging"
)

func newCycleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run a single wake cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.cycle().Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out.Status)
			if out.Artifact != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "artifact %s (%s, %d bytes, blake3 %s)\n",
					out.Artifact.Path, out.Artifact.Kind, out.Artifact.Size, out.Artifact.Digest)
			}
			return out.Err
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run wake cycles forever, sleeping --interval between them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			s := &inkframe.Scheduler{
				Cycle:   opts.cycle(),
				Sleeper: inkframe.NewFixedSleeper(opts.interval),
				Logger:  logging.New("scheduler"),
			}
			err := s.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newRenderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render <artifact>",
		Short: "Repaint a committed artifact (latest.jpg, latest.dithered.jpg or latest.bin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.dispatcher().RenderFile(args[0])
		},
	}
}

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the persisted cache validator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := inkframe.StateStore{Path: opts.statePath, Logger: logging.New("state")}.Load()
			if st.ETag == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "etag: <none>")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "etag: %s\n", st.ETag)
			return nil
		},
	}
}
