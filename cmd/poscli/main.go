// Command poscli is a terminal wallet for paying stores and for stores to
// review what they received.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baharkarakas/qrpay-backend/internal/logger"
	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/payflow"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

const programName = "poscli"

type appKey struct{}

func appFrom(cmd *cobra.Command) *app { return cmd.Context().Value(appKey{}).(*app) }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, cleanup := newRootCommand()
	err := root.ExecuteContext(ctx)
	cleanup()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. cleanup closes whatever the run
// opened and must be called after Execute returns.
func newRootCommand() (root *cobra.Command, cleanup func()) {
	var (
		configFile string
		debug      bool
		opened     *app
	)
	root = &cobra.Command{
		Use:          programName,
		Short:        "Pay stores by code and review received payments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ./poscli.yaml)")
	root.PersistentFlags().BoolVarP(&debug, "debug", "D", false, "enable debug logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		level := "warn"
		if debug {
			level = "debug"
		}
		log := logger.NewWithWriter(cmd.ErrOrStderr(), "dev", level).With("component", programName)
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}
		opened = a
		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
		return nil
	}
	cleanup = func() {
		if opened != nil {
			if err := opened.Close(); err != nil {
				opened.log.Error("close state", "err", err)
			}
		}
	}

	root.AddCommand(
		grantCameraCommand(),
		openCommand(),
		scanCommand(),
		amountCommand(),
		confirmCommand(),
		finishCommand(),
		cancelCommand(),
		statusCommand(),
		payCommand(),
		whoamiCommand(),
		registerCommand(),
		transactionsCommand(),
		decideCommand("approve", models.TxnApproved),
		decideCommand("reject", models.TxnRejected),
		refundCommand(),
	)
	return root, cleanup
}

// ---------- payment flow ----------

func stateRun(step func(ctx context.Context, a *app, args []string) (payflow.State, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		st, err := step(cmd.Context(), a, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	}
}

func grantCameraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grant-camera",
		Short: "Allow the scanner to be opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return appFrom(cmd).machine.GrantCamera(cmd.Context())
		},
	}
}

func openCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Start a new payment at the scan step",
		Args:  cobra.NoArgs,
		RunE: stateRun(func(ctx context.Context, a *app, _ []string) (payflow.State, error) {
			return a.machine.Open(ctx)
		}),
	}
}

func scanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <payload>",
		Short: "Resolve scanned code text to a store",
		Args:  cobra.ExactArgs(1),
		RunE: stateRun(func(ctx context.Context, a *app, args []string) (payflow.State, error) {
			return a.machine.Scan(ctx, args[0])
		}),
	}
}

func amountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "amount <value>",
		Short: "Enter the amount to pay",
		Args:  cobra.ExactArgs(1),
		RunE: stateRun(func(ctx context.Context, a *app, args []string) (payflow.State, error) {
			return a.machine.EnterAmount(ctx, args[0])
		}),
	}
}

func confirmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Sign and submit the discounted transfer",
		Args:  cobra.NoArgs,
		RunE: stateRun(func(ctx context.Context, a *app, _ []string) (payflow.State, error) {
			return a.machine.Confirm(ctx)
		}),
	}
}

func finishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "finish",
		Short: "Record the completed payment and end the flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return finish(cmd)
		},
	}
}

func finish(cmd *cobra.Command) error {
	err := appFrom(cmd).machine.Finish(cmd.Context())
	if errors.Is(err, payflow.ErrReportFailed) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		return nil
	}
	return err
}

func cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Discard the current payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return appFrom(cmd).machine.Cancel(cmd.Context())
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current payment",
		Args:  cobra.NoArgs,
		RunE: stateRun(func(ctx context.Context, a *app, _ []string) (payflow.State, error) {
			return a.machine.State(ctx)
		}),
	}
}

func payCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <payload> <amount>",
		Short: "Run a whole payment in one go",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, m := cmd.Context(), appFrom(cmd).machine
			if _, err := m.Open(ctx); err != nil {
				return err
			}
			if _, err := m.Scan(ctx, args[0]); err != nil {
				return err
			}
			if _, err := m.EnterAmount(ctx, args[1]); err != nil {
				_ = m.Cancel(ctx)
				return err
			}
			st, err := m.Confirm(ctx)
			if err != nil {
				_ = m.Cancel(ctx)
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), st); err != nil {
				return err
			}
			return finish(cmd)
		},
	}
}

// ---------- profiles ----------

func whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the role registered for the configured wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			wallet, err := a.wallet.Account(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.api.Identity(cmd.Context(), wallet)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), id)
		},
	}
}

func registerCommand() *cobra.Command {
	var name, description, eventLink string
	cmd := &cobra.Command{
		Use:       "register <consumer|store>",
		Short:     "Register the configured wallet",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.RoleConsumer), string(models.RoleStore)},
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(args[0])
			if err != nil {
				return err
			}
			a := appFrom(cmd)
			wallet, err := a.wallet.Account(cmd.Context())
			if err != nil {
				return err
			}
			var out any
			if role == models.RoleConsumer {
				out, err = a.api.RegisterConsumer(cmd.Context(), services.RegisterConsumerInput{
					WalletAddress: wallet, Name: name, Description: description,
				})
			} else {
				in := services.RegisterStoreInput{WalletAddress: wallet, Name: name, Description: description}
				if eventLink != "" {
					in.EventLink = &eventLink
				}
				out, err = a.api.RegisterStore(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&eventLink, "event-link", "", "store event page URL")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// ---------- transactions ----------

func transactionsCommand() *cobra.Command {
	var (
		role          string
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions for the configured wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			a := appFrom(cmd)
			wallet, err := a.wallet.Account(cmd.Context())
			if err != nil {
				return err
			}
			txs, err := a.api.ListTransactions(cmd.Context(), wallet, r, limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), txs)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleConsumer), "consumer or store")
	cmd.Flags().IntVar(&limit, "limit", services.DefaultListLimit, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func storeToken(cmd *cobra.Command) (string, error) {
	a := appFrom(cmd)
	key, err := a.signer()
	if err != nil {
		return "", err
	}
	sess, err := a.api.Login(cmd.Context(), key)
	if err != nil {
		return "", err
	}
	if sess.Role != string(models.RoleStore) {
		return "", fmt.Errorf("wallet is registered as %s, not store", sess.Role)
	}
	return sess.AccessToken, nil
}

func decideCommand(use string, to models.TransactionStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <transaction-id>",
		Short: "Mark a pending transaction " + strconv.Quote(string(to)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := storeToken(cmd)
			if err != nil {
				return err
			}
			tx, err := appFrom(cmd).api.UpdateStatus(cmd.Context(), token, args[0], to)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
}

func refundCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <transaction-id> <refund-tx-hash>",
		Short: "Record the refund transfer for a pending transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := storeToken(cmd)
			if err != nil {
				return err
			}
			tx, err := appFrom(cmd).api.RecordRefund(cmd.Context(), token, args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
}
