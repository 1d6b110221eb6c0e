package display

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*Toaster)(nil)

// PrintFunc prints one line. Matches fmt.Println and UI.Println.
type PrintFunc func(a ...interface{})

// Toaster prints toasts as styled lines.
type Toaster struct {
	log     *logger.Logger
	printFn PrintFunc
}

// NewToaster creates a toaster. If printFn is nil, fmt.Println is used.
func NewToaster(log *logger.Logger, printFn PrintFunc) *Toaster {
	if printFn == nil {
		printFn = func(a ...interface{}) { fmt.Println(a...) }
	}
	return &Toaster{log: log, printFn: printFn}
}

// Notify prints a normal toast.
func (t *Toaster) Notify(_ context.Context, message string) error {
	t.log.Debug("toast: %s", message)
	t.printFn(toastStyle.Render("  " + message))
	return nil
}

// NotifyUrgent prints an urgent toast in bold red.
func (t *Toaster) NotifyUrgent(_ context.Context, message string) error {
	t.log.Debug("toast-urgent: %s", message)
	t.printFn(urgentOutputStyle.Render("  " + message))
	return nil
}
