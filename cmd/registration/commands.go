package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-registration/activity"
	"github.com/goliatone/go-registration/mailer/rabbitmq"
	"github.com/goliatone/go-registration/pkg/types"
	"github.com/goliatone/go-registration/query"
	"github.com/spf13/cobra"
)

func newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Print the registration form descriptor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				listener := newConsoleListener(cmd.OutOrStdout())
				return app.service.ShowForm(ctx, listener)
			})
		},
	}
}

type registerConfig struct {
	email    string
	fullname string
}

func (c *registerConfig) input() types.RegistrationInput {
	return types.RegistrationInput{Email: c.email, Fullname: c.fullname}
}

func newRegisterCmd() *cobra.Command {
	cfg := &registerConfig{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account and send its credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				listener := newConsoleListener(cmd.OutOrStdout())
				if err := app.service.Register(ctx, cfg.input(), listener); err != nil {
					return err
				}
				return listener.Err()
			})
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "email address of the new account")
	cmd.Flags().StringVar(&cfg.fullname, "fullname", "", "full name of the new account")

	return cmd
}

func newShowCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a registered account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				user, err := app.service.Queries().Account.Query(ctx, query.AccountInput{Email: email})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), print.MaybeHighlightJSON(user))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address to look up")

	return cmd
}

func newActivityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List recent registration activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
				records, err := app.service.Queries().Activity.Query(ctx, query.ActivityInput{
					Filter: activity.Filter{Verb: "user.registered", Limit: limit},
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), print.MaybeHighlightJSON(records))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")

	return cmd
}

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued registration emails from RabbitMQ",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(ctx context.Context, app *App) error {
				broker := app.Config().Broker
				if broker.URL == "" {
					return errors.New("worker: broker.url is not configured")
				}
				consumer, err := rabbitmq.NewConsumer(broker.URL, brokerOptions(broker), app.mailer, app.Logger("worker"))
				if err != nil {
					return err
				}
				return consumer.Run(ctx)
			})
		},
	}
}

func withApp(ctx context.Context, fn func(context.Context, *App) error) error {
	ctx = contextOrBackground(ctx)
	app, err := NewApp(ctx, dbServer)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
