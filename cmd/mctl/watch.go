package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/stream"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the server's live stream and print what goes stale",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var (
	watchURL   string
	watchToken string
)

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://localhost:3000/api/stream", "stream endpoint")
	watchCmd.Flags().StringVar(&watchToken, "token", "", "bearer token when the server has auth enabled")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	c := stream.NewClient(watchURL, stream.InvalidatorFunc(func(t event.Type, keys []string) {
		fmt.Fprintf(out, "%s  %-15s %s\n", time.Now().Format("15:04:05"), t, strings.Join(keys, ", "))
	}))
	c.Token = watchToken
	c.OnState = func(s stream.State) {
		fmt.Fprintf(cmd.ErrOrStderr(), "stream: %s\n", s)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
