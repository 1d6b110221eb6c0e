package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/pizzatimer/internal/countdown"
	"github.com/hammamikhairi/pizzatimer/internal/display"
)

// Status prints the current pizza and its schedule.
func Status() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the active pizza and its schedule",
			Args:  cobra.NoArgs,
		}, nil, runStatus,
	)
}

func runStatus(ctx *Context, _ []string) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}
	ctrl := ctx.Controller(display.NewToaster(ctx.Log, printTo(ctx.Out)), nil)

	sess, err := ctrl.Refresh(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Fprintln(ctx.Out, "No active pizza. Plan one with 'pizzatimer new'.")
		return nil
	}

	fmt.Fprintln(ctx.Out, display.RenderStepTable(sess))
	if next := sess.NextStep(); next != nil {
		line := "Next: " + next.Title
		if next.ScheduledTime != nil {
			minutes, _ := countdown.Split(next.ScheduledTime.Sub(timeNow()))
			line += " " + countdown.Distance(minutes, true)
		}
		fmt.Fprintln(ctx.Out, line)
	}
	if sess.SMSNotificationsEnabled {
		fmt.Fprintf(ctx.Out, "SMS reminders to %s, %d min ahead\n", sess.NotificationPhone, sess.ReminderMinutesBefore)
	}
	return nil
}

// History lists past and current pizzas.
func History() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "history",
			Short: "List your pizzas",
			Args:  cobra.NoArgs,
		}, nil, runHistory,
	)
}

func runHistory(ctx *Context, _ []string) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}
	sessions, err := ctx.Controller(display.NewToaster(ctx.Log, printTo(ctx.Out)), nil).History(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(ctx.Out, "No pizzas yet.")
		return nil
	}
	fmt.Fprintln(ctx.Out, display.RenderHistoryTable(sessions))
	return nil
}

// Calendar exports a pizza's schedule as iCalendar.
func Calendar() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "calendar",
			Short: "Export the schedule as an .ics file",
			Long: `Export a pizza's step schedule in iCalendar format.

Example:
  pizzatimer calendar -o friday.ics
  pizzatimer calendar --id 42 > friday.ics
`,
			Args: cobra.NoArgs,
		}, []commandLineFlag{sessionIDFlag, outputFlag}, runCalendar,
	)
}

func runCalendar(ctx *Context, _ []string) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}
	id, err := ctx.StringParam(sessionIDFlag.name)
	if err != nil {
		return err
	}
	out, err := ctx.StringParam(outputFlag.name)
	if err != nil {
		return err
	}

	ctrl := ctx.Controller(display.NewToaster(ctx.Log, printTo(ctx.Out)), nil)
	if id == "" {
		if _, err := ctrl.Refresh(ctx); err != nil {
			return err
		}
	}
	ics, err := ctrl.CalendarExport(ctx, id)
	if err != nil {
		return err
	}

	if out == "" {
		_, err = ctx.Out.Write(ics)
		return err
	}
	if err := os.WriteFile(out, ics, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(ctx.Out, "Wrote %s\n", out)
	return nil
}

// New plans a pizza from a recipe.
func New() *cobra.Command {
	cmd := NewCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Plan a new pizza from a recipe",
			Long: `Create an active pizza from a recipe, scheduled backwards from the
target bake time.

Example:
  pizzatimer new --recipe 7 --bake-at 19:30
`,
			Args: cobra.NoArgs,
		}, []commandLineFlag{recipeFlag, bakeAtFlag}, runNew,
	)
	mustMarkRequired(cmd, recipeFlag.name)
	mustMarkRequired(cmd, bakeAtFlag.name)
	return cmd
}

func runNew(ctx *Context, _ []string) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}
	recipeID, err := ctx.StringParam(recipeFlag.name)
	if err != nil {
		return err
	}
	raw, err := ctx.StringParam(bakeAtFlag.name)
	if err != nil {
		return err
	}
	bakeAt, err := parseClock(raw, timeNow())
	if err != nil {
		return err
	}

	ctrl := ctx.Controller(display.NewToaster(ctx.Log, printTo(ctx.Out)), nil)
	sess, err := ctrl.CreateFromRecipe(ctx, recipeID, bakeAt)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, display.RenderStepTable(sess))
	return nil
}
