package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/pizzatimer/internal/alert"
	"github.com/hammamikhairi/pizzatimer/internal/command"
	"github.com/hammamikhairi/pizzatimer/internal/controller"
	"github.com/hammamikhairi/pizzatimer/internal/display"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
	"github.com/hammamikhairi/pizzatimer/internal/timer"
)

// Watch opens the live pizza page in the terminal.
func Watch() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "watch",
			Short: "Follow the active pizza with a live countdown and alerts",
			Long: `Open the active-pizza page: a status bar with the next step and a live
countdown, reminders before each step and an alert when it is due.
Type 'help' at the prompt for commands.
`,
			Args: cobra.NoArgs,
		}, nil, runWatch,
	)
}

func runWatch(ctx *Context, _ []string) error {
	if err := ctx.RequireLogin(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := ctx.Log
	ui := display.NewUI()
	parser := command.NewKeywordParser(log)
	confirmer := display.NewLineConfirmer(ui.InputChan(), parser, ui.PrintUrgent)
	var gate alertGate = alert.NewTerminalGate(confirmer, ui, log)
	if !ctx.Config.Alerts {
		gate = alert.NewNoopGate(log)
	}
	defer gate.Close()

	sound := alert.NewSound(ctx.Config.Sound, log)
	if c, ok := sound.(interface{ Close() }); ok {
		defer c.Close()
	}

	newSupervisor := func(reminder int, opts ...timer.Option) *timer.Supervisor {
		base := []timer.Option{
			timer.WithTickInterval(ctx.Config.TickInterval),
			timer.WithReminderMinutes(reminder),
			timer.WithIcon(ctx.Config.AlertIcon),
		}
		return timer.New(gate, sound, log, append(base, opts...)...)
	}

	ctrl := controller.New(ctx.API, ctx.Cache, display.NewToaster(log, ui.Println), confirmer, ctx.Creds, newSupervisor, log,
		controller.WithPollInterval(ctx.Config.PollInterval),
		controller.WithDefaultReminderMinutes(ctx.Config.ReminderMinutes),
	)
	ui.Attach(ctrl, gate.Permission)

	app := &watchApp{
		ctrl:   ctrl,
		parser: parser,
		gate:   gate,
		ui:     ui,
		log:    log,
		stop:   cancel,
	}

	fmt.Fprintln(ctx.Out, display.RenderBanner("Type 'help' for commands, 'alerts' to enable step alerts, 'quit' to exit."))

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		if !ui.WaitReady() {
			return
		}
		app.run(runCtx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal until quit.
	uiErr := ui.Run()
	cancel()
	<-appDone

	if app.err != nil {
		return app.err
	}
	if uiErr != nil {
		return fmt.Errorf("display: %w", uiErr)
	}
	return nil
}

// alertGate is the gate plus the watch-only dismiss and teardown hooks.
type alertGate interface {
	domain.AlertGate
	Dismiss() bool
	Close()
}

type watchApp struct {
	ctrl   *controller.Controller
	parser domain.IntentParser
	gate   alertGate
	ui     *display.UI
	log    *logger.Logger
	stop   context.CancelFunc
	err    error
}

func (a *watchApp) run(ctx context.Context) {
	ctrlErr := make(chan error, 1)
	go func() { ctrlErr <- a.ctrl.Run(ctx) }()

	defer func() {
		a.stop()
		if ctrlErr != nil {
			<-ctrlErr
		}
	}()

	input := a.ui.InputChan()
	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case err := <-ctrlErr:
			ctrlErr = nil
			if err != nil {
				a.err = err
				return
			}
		case line, ok = <-input:
			if !ok {
				return
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		intent, err := a.parser.Parse(ctx, line)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)

		if quit := a.handleIntent(ctx, intent); quit {
			return
		}
	}
}

// handleIntent runs one command. It returns true when the user asked to
// leave.
func (a *watchApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentStart:
		a.report(a.ctrl.Start(ctx))
	case domain.IntentPause:
		a.report(a.ctrl.Pause(ctx))
	case domain.IntentResume:
		a.report(a.ctrl.Resume(ctx))
	case domain.IntentCancel:
		a.report(a.ctrl.Cancel(ctx))
	case domain.IntentComplete:
		a.report(a.ctrl.CompleteStep(ctx, intent.StepNumber, intent.StepStatus))
	case domain.IntentSkip:
		a.report(a.ctrl.SkipStep(ctx, intent.StepNumber))
	case domain.IntentLater, domain.IntentEarlier:
		a.report(a.ctrl.RescheduleByMinutes(ctx, intent.Minutes))
	case domain.IntentSMSOn:
		a.report(a.ctrl.EnableNotifications(ctx, intent.Payload, intent.Minutes))
	case domain.IntentSMSOff:
		a.report(a.ctrl.DisableNotifications(ctx))
	case domain.IntentRefresh:
		if _, err := a.ctrl.Refresh(ctx); err != nil {
			a.report(err)
			return false
		}
		a.status()
	case domain.IntentStatus:
		a.status()
	case domain.IntentAlerts:
		a.enableAlerts(ctx)
	case domain.IntentDismiss:
		if !a.gate.Dismiss() {
			a.ui.PrintHint("Nothing to dismiss.")
		}
	case domain.IntentConfirm, domain.IntentDeny:
		a.ui.PrintHint("Nothing to answer right now.")
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentQuit:
		a.ui.PrintToast("Bye! The schedule keeps running on the server.")
		return true
	case domain.IntentUnknown:
		a.ui.PrintHint(fmt.Sprintf("Didn't catch %q. Type 'help' for commands.", intent.Payload))
	}
	return false
}

// report prints errors the controller did not already toast.
func (a *watchApp) report(err error) {
	if err == nil {
		return
	}
	switch {
	case controller.Reported(err):
	case errors.Is(err, domain.ErrCancelled):
		a.ui.PrintHint("Kept the pizza going.")
	case errors.Is(err, domain.ErrNoActiveSession):
		a.ui.PrintHint("No active pizza. Plan one with 'pizzatimer new'.")
	case errors.Is(err, domain.ErrUnauthenticated):
		a.ui.PrintUrgent("Your session expired. Run 'pizzatimer login' again.")
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStepNotActionable),
		errors.Is(err, domain.ErrNotFound):
		a.ui.PrintUrgent(err.Error())
	default:
		a.log.Debug("action failed: %v", err)
	}
}

func (a *watchApp) status() {
	sess, ok := a.ctrl.Current()
	if !ok {
		a.ui.PrintHint("No active pizza.")
		return
	}
	snap, hasTimer := a.ctrl.Timer()
	now := snap.Now
	if !hasTimer || now.IsZero() {
		now = timeNow()
	}

	a.ui.PrintStep(fmt.Sprintf("%s (%s, %.0f%% done)", sess.Name, sess.Status, sess.CompletionPercentage))
	for _, line := range display.StepLines(sess, now) {
		a.ui.Println("  " + line)
	}
	if sess.SMSNotificationsEnabled {
		a.ui.PrintHint(fmt.Sprintf("SMS reminders to %s, %d min ahead", sess.NotificationPhone, sess.ReminderMinutesBefore))
	}
}

func (a *watchApp) enableAlerts(ctx context.Context) {
	perm, err := a.gate.RequestPermission(ctx)
	switch {
	case errors.Is(err, domain.ErrUnsupported):
		a.ui.PrintHint("Alerts are unavailable here (no interactive terminal, or alerts turned off); toasts still show.")
	case err != nil:
		a.ui.PrintUrgent("Could not enable alerts: " + err.Error())
	case perm == domain.PermissionGranted:
		a.ui.PrintToast("Step alerts on.")
	default:
		a.ui.PrintHint("Step alerts stay off for this run.")
	}
}

func (a *watchApp) showHelp() {
	lines := []string{
		"start | pause | resume | cancel   change the pizza's state",
		"done [n] [early|late]             complete a step (next by default)",
		"skip [n]                          skip a step",
		"later [30|1h] | earlier [15m]     move the whole schedule",
		"sms <phone> [minutes] | sms off   SMS reminders",
		"status | refresh                  show the schedule",
		"alerts | ok                       enable or dismiss step alerts",
		"quit                              leave (the pizza keeps going)",
	}
	for _, l := range lines {
		a.ui.PrintInstruction(l)
	}
}
