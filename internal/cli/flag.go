package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	isBool                               bool
	// configKey, when set, makes an explicitly passed flag override that
	// config key.
	configKey string
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $XDG_CONFIG_HOME/pizzatimer/config.yaml)",
	}
	apiURLFlag = commandLineFlag{
		name:      "api-url",
		usage:     "backend base URL",
		configKey: "api_url",
	}
	verboseFlag = commandLineFlag{
		name:      "verbose",
		shorthand: "v",
		usage:     "enable debug logging",
		isBool:    true,
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "disable all logging",
		isBool:    true,
	}
	yesFlag = commandLineFlag{
		name:      "yes",
		shorthand: "y",
		usage:     "do not ask for confirmation",
		isBool:    true,
	}
	emailFlag = commandLineFlag{
		name:  "email",
		usage: "account email (prompted when empty)",
	}
	stepStatusFlag = commandLineFlag{
		name:  "status",
		usage: "how it went: early, on-time or late (server decides when empty)",
	}
	byFlag = commandLineFlag{
		name:  "by",
		usage: "shift the schedule by minutes or a duration, e.g. 30, 1h or -15m",
	}
	atFlag = commandLineFlag{
		name:  "at",
		usage: "new bake time, e.g. 19:30 or 2026-10-24T19:30",
	}
	phoneFlag = commandLineFlag{
		name:  "phone",
		usage: "phone number for SMS reminders",
	}
	minutesFlag = commandLineFlag{
		name:  "minutes",
		usage: "minutes before each step to send the SMS (session value when empty)",
	}
	outputFlag = commandLineFlag{
		name:      "output",
		shorthand: "o",
		usage:     "write to this file instead of stdout",
	}
	sessionIDFlag = commandLineFlag{
		name:  "id",
		usage: "pizza id (current pizza when empty)",
	}
	recipeFlag = commandLineFlag{
		name:  "recipe",
		usage: "recipe id to plan from",
	}
	bakeAtFlag = commandLineFlag{
		name:  "bake-at",
		usage: "target bake time, e.g. 19:30 or 2026-10-24T19:30",
	}
)

// commonFlags are registered on every command.
var commonFlags = []commandLineFlag{configFlag, apiURLFlag, verboseFlag, quietFlag}

func initFlags(cmd *cobra.Command, addFlags ...commandLineFlag) {
	for _, flag := range append(append([]commandLineFlag{}, commonFlags...), addFlags...) {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, false, flag.usage)
			continue
		}
		cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
	}
}

func mustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("failed to mark flag %s as required: %v", name, err))
	}
}
