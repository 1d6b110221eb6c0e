package domain

import "context"

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentStart
	IntentPause
	IntentResume
	IntentCancel
	IntentComplete   // finish a step; payload: step number and optional early/late
	IntentSkip       // skip a step; payload: optional step number
	IntentLater      // shift the schedule later; payload: minutes
	IntentEarlier    // shift the schedule earlier; payload: minutes
	IntentRefresh    // refetch the session now
	IntentStatus     // print the step list
	IntentAlerts     // ask for alert permission
	IntentDismiss    // close the current alert banner
	IntentSMSOn      // enable server-side SMS reminders; payload: phone [minutes]
	IntentSMSOff     // disable server-side SMS reminders
	IntentConfirm    // answer yes to a pending question
	IntentDeny       // answer no to a pending question
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentPause:
		return "pause"
	case IntentResume:
		return "resume"
	case IntentCancel:
		return "cancel"
	case IntentComplete:
		return "complete"
	case IntentSkip:
		return "skip"
	case IntentLater:
		return "later"
	case IntentEarlier:
		return "earlier"
	case IntentRefresh:
		return "refresh"
	case IntentStatus:
		return "status"
	case IntentAlerts:
		return "alerts"
	case IntentDismiss:
		return "dismiss"
	case IntentSMSOn:
		return "sms_on"
	case IntentSMSOff:
		return "sms_off"
	case IntentConfirm:
		return "confirm"
	case IntentDeny:
		return "deny"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type       IntentType
	StepNumber int        // 0 means "the next step"
	Minutes    int        // schedule shift or SMS reminder lead time
	StepStatus StepStatus // completion flavour for IntentComplete
	Payload    string     // raw argument text, e.g. a phone number
}

// IntentParser turns a line of user input into an intent.
type IntentParser interface {
	Parse(ctx context.Context, input string) (*Intent, error)
}
