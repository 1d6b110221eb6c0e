package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/pizzatimer/internal/controller"
	"github.com/hammamikhairi/pizzatimer/internal/display"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
)

func printTo(w io.Writer) display.PrintFunc {
	return func(a ...interface{}) { fmt.Fprintln(w, a...) }
}

func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return domain.ErrCancelled
	}
	return fmt.Errorf("prompt: %w", err)
}

// withSession loads the current pizza into a one-shot controller, then
// runs fn against it. Failure toasts are printed by the controller.
func withSession(ctx *Context, fn func(context.Context, *controller.Controller) error) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}
	confirmer := display.NewPromptConfirmer(ctx.BoolParam(yesFlag.name), nil, nil)
	ctrl := ctx.Controller(display.NewToaster(ctx.Log, printTo(ctx.Out)), confirmer)

	sess, err := ctrl.Refresh(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return domain.ErrNoActiveSession
	}
	return fn(ctx, ctrl)
}

func sessionCommand(use, short string, flags []commandLineFlag, args cobra.PositionalArgs, run func(ctx *Context, args []string) error) *cobra.Command {
	return NewCommand(&cobra.Command{Use: use, Short: short, Args: args}, flags, run)
}

// Start begins the planned pizza.
func Start() *cobra.Command {
	return sessionCommand("start", "Start the planned pizza", nil, cobra.NoArgs,
		func(ctx *Context, _ []string) error {
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.Start(c)
			})
		})
}

// Pause pauses the pizza in progress.
func Pause() *cobra.Command {
	return sessionCommand("pause", "Pause the pizza in progress", nil, cobra.NoArgs,
		func(ctx *Context, _ []string) error {
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.Pause(c)
			})
		})
}

// Resume continues a paused pizza.
func Resume() *cobra.Command {
	return sessionCommand("resume", "Resume a paused pizza", nil, cobra.NoArgs,
		func(ctx *Context, _ []string) error {
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.Resume(c)
			})
		})
}

// Cancel cancels the pizza after confirmation.
func Cancel() *cobra.Command {
	return sessionCommand("cancel", "Cancel the active pizza", []commandLineFlag{yesFlag}, cobra.NoArgs,
		func(ctx *Context, _ []string) error {
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.Cancel(c)
			})
		})
}

// Complete marks a step done.
func Complete() *cobra.Command {
	return sessionCommand("complete [step]", "Mark a step done (next step by default)",
		[]commandLineFlag{stepStatusFlag}, cobra.MaximumNArgs(1),
		func(ctx *Context, args []string) error {
			n, err := parseStepArg(args)
			if err != nil {
				return err
			}
			raw, err := ctx.StringParam(stepStatusFlag.name)
			if err != nil {
				return err
			}
			status, err := parseStepStatus(raw)
			if err != nil {
				return err
			}
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.CompleteStep(c, n, status)
			})
		})
}

// Skip skips a step.
func Skip() *cobra.Command {
	return sessionCommand("skip [step]", "Skip a step (next step by default)", nil, cobra.MaximumNArgs(1),
		func(ctx *Context, args []string) error {
			n, err := parseStepArg(args)
			if err != nil {
				return err
			}
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.SkipStep(c, n)
			})
		})
}

// Reschedule moves the schedule by an offset or to a new bake time.
func Reschedule() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "reschedule",
			Short: "Move the schedule",
			Long: `Shift every remaining step, either by an offset or to a new bake time.

Example:
  pizzatimer reschedule --by 30m
  pizzatimer reschedule --by -15
  pizzatimer reschedule --at 20:15
`,
			Args: cobra.NoArgs,
		}, []commandLineFlag{byFlag, atFlag}, runReschedule,
	)
}

func runReschedule(ctx *Context, _ []string) error {
	by, err := ctx.StringParam(byFlag.name)
	if err != nil {
		return err
	}
	at, err := ctx.StringParam(atFlag.name)
	if err != nil {
		return err
	}

	switch {
	case by != "" && at != "":
		return errors.New("use either --by or --at, not both")
	case by != "":
		minutes, err := parseShift(by)
		if err != nil {
			return err
		}
		return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
			return ctrl.RescheduleByMinutes(c, minutes)
		})
	case at != "":
		when, err := parseClock(at, timeNow())
		if err != nil {
			return err
		}
		return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
			return ctrl.Reschedule(c, when)
		})
	default:
		return errors.New("one of --by or --at is required")
	}
}

// Notify turns SMS reminders on or off.
func Notify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage SMS reminders",
	}
	cmd.AddCommand(NewCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Send SMS reminders before each step",
			Args:  cobra.NoArgs,
		}, []commandLineFlag{phoneFlag, minutesFlag}, runNotifyEnable,
	))
	cmd.AddCommand(sessionCommand("disable", "Stop SMS reminders", nil, cobra.NoArgs,
		func(ctx *Context, _ []string) error {
			return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
				return ctrl.DisableNotifications(c)
			})
		}))
	return cmd
}

func runNotifyEnable(ctx *Context, _ []string) error {
	phone, err := ctx.StringParam(phoneFlag.name)
	if err != nil {
		return err
	}
	raw, err := ctx.StringParam(minutesFlag.name)
	if err != nil {
		return err
	}
	minutes := 0
	if raw != "" {
		if minutes, err = parseShift(raw); err != nil || minutes < 0 {
			return fmt.Errorf("minutes %q: expected a positive number", raw)
		}
	}
	if phone == "" {
		phone, err = (&promptui.Prompt{Label: "Phone"}).Run()
		if err != nil {
			return promptErr(err)
		}
	}
	return withSession(ctx, func(c context.Context, ctrl *controller.Controller) error {
		return ctrl.EnableNotifications(c, phone, minutes)
	})
}
