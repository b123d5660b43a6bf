// Package payflow drives the consumer side of a payment: scan a store code,
// enter an amount, confirm the transfer, then report it.
package payflow

import "time"

// StateVersion is bumped when State changes shape; stored states of another
// version are discarded on load.
const StateVersion = 1

type Step string

const (
	StepIdle    Step = ""
	StepScan    Step = "scan"
	StepAmount  Step = "amount"
	StepConfirm Step = "confirm"
	StepSuccess Step = "success"
)

// State is the staged input of one payment. Empty fields mean "not set yet".
type State struct {
	Version       int       `json:"version"`
	Name          string    `json:"name,omitempty"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	UniqueID      string    `json:"uniqueId,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Step          Step      `json:"step,omitempty"`
	TxHash        string    `json:"txHash,omitempty"`
	SenderAddress string    `json:"senderAddress,omitempty"`
	FinalAmount   string    `json:"finalAmount,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Merge overlays the non-empty fields of patch onto s.
func (s State) Merge(patch State) State {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.Name, patch.Name)
	set(&s.WalletAddress, patch.WalletAddress)
	set(&s.UniqueID, patch.UniqueID)
	set(&s.Amount, patch.Amount)
	set(&s.TxHash, patch.TxHash)
	set(&s.SenderAddress, patch.SenderAddress)
	set(&s.FinalAmount, patch.FinalAmount)
	if patch.Step != StepIdle {
		s.Step = patch.Step
	}
	s.Version = StateVersion
	return s
}

func (s State) IsZero() bool { return s.Step == StepIdle }
