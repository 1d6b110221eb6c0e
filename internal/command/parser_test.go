package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	parser := NewKeywordParser(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	tests := []struct {
		input string
		want  domain.Intent
	}{
		// Session transitions
		{"start", domain.Intent{Type: domain.IntentStart}},
		{"Let's go", domain.Intent{Type: domain.IntentStart}},
		{"pause", domain.Intent{Type: domain.IntentPause}},
		{"brb", domain.Intent{Type: domain.IntentPause}},
		{"resume", domain.Intent{Type: domain.IntentResume}},
		{"back", domain.Intent{Type: domain.IntentResume}},
		{"cancel", domain.Intent{Type: domain.IntentCancel}},

		// Steps
		{"done", domain.Intent{Type: domain.IntentComplete}},
		{"done 3", domain.Intent{Type: domain.IntentComplete, StepNumber: 3}},
		{"complete #4 late", domain.Intent{Type: domain.IntentComplete, StepNumber: 4, StepStatus: domain.StepCompletedLate}},
		{"done early", domain.Intent{Type: domain.IntentComplete, StepStatus: domain.StepCompletedEarly}},
		{"finish 2 on time", domain.Intent{Type: domain.IntentComplete, StepNumber: 2, StepStatus: domain.StepCompleted}},
		{"skip", domain.Intent{Type: domain.IntentSkip}},
		{"s 5", domain.Intent{Type: domain.IntentSkip, StepNumber: 5}},

		// Schedule shifts
		{"later", domain.Intent{Type: domain.IntentLater, Minutes: 30}},
		{"later 45", domain.Intent{Type: domain.IntentLater, Minutes: 45}},
		{"delay 1h30m", domain.Intent{Type: domain.IntentLater, Minutes: 90}},
		{"earlier", domain.Intent{Type: domain.IntentEarlier, Minutes: -30}},
		{"sooner 15m", domain.Intent{Type: domain.IntentEarlier, Minutes: -15}},

		// SMS
		{"sms +48123456789", domain.Intent{Type: domain.IntentSMSOn, Payload: "+48123456789"}},
		{"sms 555-123-456 20", domain.Intent{Type: domain.IntentSMSOn, Payload: "555-123-456", Minutes: 20}},
		{"sms off", domain.Intent{Type: domain.IntentSMSOff}},

		// Everything else
		{"refresh", domain.Intent{Type: domain.IntentRefresh}},
		{"status", domain.Intent{Type: domain.IntentStatus}},
		{"steps", domain.Intent{Type: domain.IntentStatus}},
		{"alerts", domain.Intent{Type: domain.IntentAlerts}},
		{"dismiss", domain.Intent{Type: domain.IntentDismiss}},
		{"ok", domain.Intent{Type: domain.IntentDismiss}},
		{"y", domain.Intent{Type: domain.IntentConfirm}},
		{"No", domain.Intent{Type: domain.IntentDeny}},
		{"help", domain.Intent{Type: domain.IntentHelp}},
		{"?", domain.Intent{Type: domain.IntentHelp}},
		{"quit", domain.Intent{Type: domain.IntentQuit}},
		{"  q  ", domain.Intent{Type: domain.IntentQuit}},

		// Unknown
		{"later soon", domain.Intent{Type: domain.IntentUnknown, Payload: "later soon"}},
		{"later 0", domain.Intent{Type: domain.IntentUnknown, Payload: "later 0"}},
		{"sms hello", domain.Intent{Type: domain.IntentUnknown, Payload: "sms hello"}},
		{"toss the   dough", domain.Intent{Type: domain.IntentUnknown, Payload: "toss the dough"}},
		{"", domain.Intent{Type: domain.IntentUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent, err := parser.Parse(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *intent)
		})
	}
}
