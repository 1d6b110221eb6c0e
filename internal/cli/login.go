package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// Login stores tokens for the given account.
func Login() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Log in to the pizza backend",
			Long: `Exchange email and password for tokens and store them in the user's
state directory. The password is always prompted.

Example:
  pizzatimer login --email me@example.com
`,
			Args: cobra.NoArgs,
		}, []commandLineFlag{emailFlag}, runLogin,
	)
}

func runLogin(ctx *Context, _ []string) error {
	email, err := ctx.StringParam(emailFlag.name)
	if err != nil {
		return err
	}
	if email == "" {
		email, err = (&promptui.Prompt{
			Label: "Email",
			Validate: func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("not an email address")
				}
				return nil
			},
		}).Run()
		if err != nil {
			return promptErr(err)
		}
	}

	password, err := (&promptui.Prompt{Label: "Password", Mask: '*'}).Run()
	if err != nil {
		return promptErr(err)
	}

	if err := ctx.API.Login(ctx, strings.TrimSpace(email), password); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Logged in as %s\n", email)
	return nil
}

// Logout forgets the stored tokens.
func Logout() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored credentials",
			Args:  cobra.NoArgs,
		}, nil, runLogout,
	)
}

func runLogout(ctx *Context, _ []string) error {
	if err := ctx.API.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, "Logged out.")
	return nil
}
