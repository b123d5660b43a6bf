package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/qrpay-backend/internal/payflow"
	"github.com/baharkarakas/qrpay-backend/internal/services"
)

const (
	DefaultReportAttempts = 3
	DefaultReportInterval = 500 * time.Millisecond
)

var _ payflow.Reporter = (*Reporter)(nil)

// Reporter records completed transfers, retrying transient failures with a
// doubling delay.
type Reporter struct {
	c   *Client
	log *slog.Logger

	Attempts        int
	InitialInterval time.Duration
}

func NewReporter(c *Client, log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{c: c, log: log, Attempts: DefaultReportAttempts, InitialInterval: DefaultReportInterval}
}

func (r *Reporter) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	retries := 0
	if r.Attempts > 1 {
		retries = r.Attempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// retryable reports whether a failed call may succeed on a later attempt.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Status >= 500 || apiErr.Status == http.StatusTooManyRequests
}

// Report creates the transaction record. A record that already exists counts
// as success.
func (r *Reporter) Report(ctx context.Context, amount decimal.Decimal, txHash, sender, receiver string) error {
	in := services.CreateTransactionInput{
		Amount:          amount.String(),
		TxHash:          txHash,
		SenderAddress:   sender,
		ReceiverAddress: receiver,
	}
	attempt := 0
	op := func() error {
		attempt++
		_, err := r.c.CreateTransaction(ctx, in)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			r.log.Info("transaction already recorded", "tx_hash", txHash)
			return nil
		}
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn("report failed, retrying", "tx_hash", txHash, "attempt", attempt, "wait", wait, "err", err)
	}
	return backoff.RetryNotify(op, r.policy(ctx), notify)
}
