// Package command parses the watch prompt's typed commands into intents.
package command

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// Compile-time interface check.
var _ domain.IntentParser = (*KeywordParser)(nil)

// DefaultShiftMinutes is used by "later" and "earlier" without an amount.
const DefaultShiftMinutes = 30

// KeywordParser matches input against keywords and simple patterns.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
}

type patternRule struct {
	regex  *regexp.Regexp
	intent domain.IntentType
}

var (
	completeRe = regexp.MustCompile(`(?i)^(?:done|complete|finish|d)(?:\s+#?(\d+))?(?:\s+(early|late|on ?time))?$`)
	skipRe     = regexp.MustCompile(`(?i)^(?:skip|s)(?:\s+#?(\d+))?$`)
	shiftRe    = regexp.MustCompile(`(?i)^(later|delay|earlier|sooner)(?:\s+(\S+))?$`)
	smsOffRe   = regexp.MustCompile(`(?i)^sms\s+(?:off|disable|stop)$`)
	smsOnRe    = regexp.MustCompile(`(?i)^sms\s+(\+?\d[\d-]{5,})(?:\s+(\d+))?$`)
)

// NewKeywordParser creates the prompt parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(start|begin|go|let'?s go)$`), domain.IntentStart},
		{regexp.MustCompile(`(?i)^(pause|brb|wait|p)$`), domain.IntentPause},
		{regexp.MustCompile(`(?i)^(resume|unpause|back|continue)$`), domain.IntentResume},
		{regexp.MustCompile(`(?i)^(cancel|abort|abandon)$`), domain.IntentCancel},
		{regexp.MustCompile(`(?i)^(refresh|reload|r)$`), domain.IntentRefresh},
		{regexp.MustCompile(`(?i)^(status|steps|where|info|ls)$`), domain.IntentStatus},
		{regexp.MustCompile(`(?i)^(alerts|notifications|enable alerts)$`), domain.IntentAlerts},
		{regexp.MustCompile(`(?i)^(dismiss|ok|got it|x)$`), domain.IntentDismiss},
		{regexp.MustCompile(`(?i)^(y|yes|yeah|sure)$`), domain.IntentConfirm},
		{regexp.MustCompile(`(?i)^(n|no|nope)$`), domain.IntentDeny},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.IntentHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q)$`), domain.IntentQuit},
	}
	return p
}

// Parse converts user input into an intent. Input that matches nothing, or
// matches with a bad argument, yields IntentUnknown carrying the input.
func (p *KeywordParser) Parse(_ context.Context, input string) (*domain.Intent, error) {
	trimmed := strings.Join(strings.Fields(input), " ")
	if trimmed == "" {
		return &domain.Intent{Type: domain.IntentUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched intent: %s", rule.intent)
			return &domain.Intent{Type: rule.intent}, nil
		}
	}

	if m := completeRe.FindStringSubmatch(trimmed); m != nil {
		return &domain.Intent{
			Type:       domain.IntentComplete,
			StepNumber: atoi(m[1]),
			StepStatus: completionFlavour(m[2]),
		}, nil
	}

	if m := skipRe.FindStringSubmatch(trimmed); m != nil {
		return &domain.Intent{Type: domain.IntentSkip, StepNumber: atoi(m[1])}, nil
	}

	if m := shiftRe.FindStringSubmatch(trimmed); m != nil {
		minutes, ok := parseMinutes(m[2])
		if !ok {
			return unknown(trimmed), nil
		}
		verb := strings.ToLower(m[1])
		if verb == "earlier" || verb == "sooner" {
			return &domain.Intent{Type: domain.IntentEarlier, Minutes: -minutes}, nil
		}
		return &domain.Intent{Type: domain.IntentLater, Minutes: minutes}, nil
	}

	if smsOffRe.MatchString(trimmed) {
		return &domain.Intent{Type: domain.IntentSMSOff}, nil
	}
	if m := smsOnRe.FindStringSubmatch(trimmed); m != nil {
		return &domain.Intent{Type: domain.IntentSMSOn, Payload: m[1], Minutes: atoi(m[2])}, nil
	}

	p.log.Debug("no match, returning unknown intent")
	return unknown(trimmed), nil
}

func unknown(input string) *domain.Intent {
	return &domain.Intent{Type: domain.IntentUnknown, Payload: input}
}

// parseMinutes accepts "", "45", "45m" or any Go duration like "1h30m".
// The result is always positive.
func parseMinutes(arg string) (int, bool) {
	if arg == "" {
		return DefaultShiftMinutes, true
	}
	if n, err := strconv.Atoi(arg); err == nil {
		return n, n > 0
	}
	d, err := time.ParseDuration(arg)
	if err != nil || d < time.Minute {
		return 0, false
	}
	return int(d / time.Minute), true
}

func completionFlavour(s string) domain.StepStatus {
	switch strings.ReplaceAll(strings.ToLower(s), " ", "") {
	case "early":
		return domain.StepCompletedEarly
	case "late":
		return domain.StepCompletedLate
	case "ontime":
		return domain.StepCompleted
	default:
		return domain.StepUnknown
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
