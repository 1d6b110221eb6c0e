// Pizza Timer follows an active pizza from the terminal: a live countdown
// to the next step, reminders and due alerts, and the pizza's actions.
//
// Usage:
//
//	pizzatimer login
//	pizzatimer watch
//	pizzatimer status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/pizzatimer/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "pizzatimer",
	Short: "Follow your active pizza from the terminal",
	Long: `Pizza Timer follows the active pizza planned on the server.

'watch' opens a live page with the next step, a countdown, reminders a few
minutes ahead and an alert when a step is due. The other commands run a
single action and exit.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(cli.Login())
	rootCmd.AddCommand(cli.Logout())
	rootCmd.AddCommand(cli.Watch())
	rootCmd.AddCommand(cli.Status())
	rootCmd.AddCommand(cli.History())
	rootCmd.AddCommand(cli.New())
	rootCmd.AddCommand(cli.Start())
	rootCmd.AddCommand(cli.Pause())
	rootCmd.AddCommand(cli.Resume())
	rootCmd.AddCommand(cli.Cancel())
	rootCmd.AddCommand(cli.Complete())
	rootCmd.AddCommand(cli.Skip())
	rootCmd.AddCommand(cli.Reschedule())
	rootCmd.AddCommand(cli.Notify())
	rootCmd.AddCommand(cli.Calendar())
	rootCmd.AddCommand(cli.Version())
}
