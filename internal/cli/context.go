// Package cli wires the pizzatimer commands: it loads configuration,
// builds the API client and credential store, and hands each command a
// ready Context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/pizzatimer/internal/api"
	"github.com/hammamikhairi/pizzatimer/internal/auth"
	"github.com/hammamikhairi/pizzatimer/internal/config"
	"github.com/hammamikhairi/pizzatimer/internal/controller"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
	"github.com/hammamikhairi/pizzatimer/internal/storage"
)

// Context carries everything a command needs.
type Context struct {
	context.Context

	Command *cobra.Command
	Config  *config.Config
	Log     *logger.Logger
	Creds   *auth.Store
	API     *api.Client
	Cache   *storage.SessionCache
	Out     io.Writer

	closers []io.Closer
}

// NewContext resolves config from files, environment and flags, then builds
// the logger, credential store and API client.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	var cfgOpts []config.Option
	if path, _ := cmd.Flags().GetString(configFlag.name); path != "" {
		cfgOpts = append(cfgOpts, config.WithConfigFile(path))
	}
	for _, f := range append(append([]commandLineFlag{}, commonFlags...), flags...) {
		if f.configKey == "" || !cmd.Flags().Changed(f.name) {
			continue
		}
		v, _ := cmd.Flags().GetString(f.name)
		cfgOpts = append(cfgOpts, config.WithOverride(f.configKey, v))
	}
	if v, _ := cmd.Flags().GetBool(verboseFlag.name); v {
		cfgOpts = append(cfgOpts, config.WithOverride("log_level", "verbose"))
	}
	if q, _ := cmd.Flags().GetBool(quietFlag.name); q {
		cfgOpts = append(cfgOpts, config.WithOverride("log_level", "off"))
	}

	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Context: ctx,
		Command: cmd,
		Config:  cfg,
		Out:     cmd.OutOrStdout(),
	}

	c.Log = logger.New(logger.ParseLevel(cfg.LogLevel), c.openLogFile(cfg.LogFile), logger.WithFormat(cfg.LogFormat))
	if cfg.ConfigFile != "" {
		c.Log.Debug("config loaded from %s", cfg.ConfigFile)
	}

	credPath := cfg.CredentialsFile
	if credPath == "" {
		credPath = auth.DefaultPath()
	}
	c.Creds = auth.NewStore(afero.NewOsFs(), credPath, c.Log)
	c.API = api.New(cfg.APIURL, c.Creds, c.Log, api.WithTimeout(cfg.RequestTimeout))
	c.Cache = storage.NewSessionCache(c.Log)
	return c, nil
}

// openLogFile keeps logs out of the terminal UI. "stderr" or an unopenable
// file falls back to stderr.
func (c *Context) openLogFile(path string) io.Writer {
	if path == "" || path == "stderr" {
		return os.Stderr
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr
	}
	c.closers = append(c.closers, f)
	return f
}

// Close releases the log file.
func (c *Context) Close() {
	for _, cl := range c.closers {
		_ = cl.Close()
	}
}

// StringParam returns a string flag value.
func (c *Context) StringParam(name string) (string, error) {
	v, err := c.Command.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get flag %s: %w", name, err)
	}
	return v, nil
}

// BoolParam returns a boolean flag value, false when unset.
func (c *Context) BoolParam(name string) bool {
	v, _ := c.Command.Flags().GetBool(name)
	return v
}

// RequireLogin fails early when no usable credentials are stored.
func (c *Context) RequireLogin() error {
	if !c.Creds.Authenticated(time.Now()) {
		return fmt.Errorf("%w: run 'pizzatimer login' first", domain.ErrUnauthenticated)
	}
	return nil
}

// Controller builds a controller for one-shot commands: no timer runs.
func (c *Context) Controller(notifier domain.Notifier, confirmer domain.Confirmer) *controller.Controller {
	return controller.New(c.API, c.Cache, notifier, confirmer, c.Creds, nil, c.Log,
		controller.WithDefaultReminderMinutes(c.Config.ReminderMinutes),
	)
}

// NewCommand attaches flags and a RunE that builds the Context.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(ctx *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags...)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			return fmt.Errorf("initialization error: %w", err)
		}
		defer ctx.Close()

		if err := runFunc(ctx, args); err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				fmt.Fprintln(ctx.Out, "Nothing changed.")
				return nil
			}
			ctx.Log.Error("%s failed: %v", cmd.Name(), err)
			return err
		}
		return nil
	}
	return cmd
}

// Reported tells whether err was already shown to the user as a toast.
func Reported(err error) bool {
	return controller.Reported(err)
}
