package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-registration/pkg/types"
)

var (
	errValidationFailed = errors.New("registration: validation failed")
	errCreationFailed   = errors.New("registration: account was not created")
)

// consoleListener writes registration outcomes to a terminal.
type consoleListener struct {
	out io.Writer
	err error
}

var _ types.Listener = (*consoleListener)(nil)

func newConsoleListener(out io.Writer) *consoleListener {
	return &consoleListener{out: out}
}

// Err is non-nil when the last outcome was a failure.
func (l *consoleListener) Err() error {
	return l.err
}

func (l *consoleListener) IndexSucceed(_ context.Context, view types.FormView) {
	fmt.Fprintln(l.out, print.MaybeHighlightJSON(view.Form))
}

func (l *consoleListener) CreateValidationFailed(_ context.Context, errs types.FieldErrors) {
	fields := errs.Fields()
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(l.out, "%s: %s\n", field, strings.Join(errs[field], "; "))
	}
	l.err = errValidationFailed
}

func (l *consoleListener) CreateFailed(_ context.Context, failure types.FailureView) {
	fmt.Fprintf(l.out, "registration failed: %s\n", failure.Error)
	l.err = fmt.Errorf("%w: %s", errCreationFailed, failure.Error)
}

func (l *consoleListener) CreateSucceed(context.Context) {
	fmt.Fprintln(l.out, "account created, credentials sent")
	l.err = nil
}

func (l *consoleListener) CreateSucceedWithoutNotification(context.Context) {
	fmt.Fprintln(l.out, "account created, credentials email was not sent")
	l.err = nil
}
