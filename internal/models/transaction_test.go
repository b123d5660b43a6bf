package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		want     bool
	}{
		{TxnPending, TxnApproved, true},
		{TxnPending, TxnRejected, true},
		{TxnPending, TxnPending, false},
		{TxnApproved, TxnRejected, false},
		{TxnApproved, TxnApproved, false},
		{TxnRejected, TxnApproved, false},
		{TxnPending, TransactionStatus("SETTLED"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Store ")
	require.NoError(t, err)
	assert.Equal(t, RoleStore, r)

	r, err = ParseRole("consumer")
	require.NoError(t, err)
	assert.Equal(t, RoleConsumer, r)

	_, err = ParseRole("unregistered")
	assert.Error(t, err)
}

func TestStore_Validate(t *testing.T) {
	bad := "ftp://example.com"
	s := Store{WalletAddress: "0xAA", Name: "  Demo Cafe ", EventLink: &bad}
	assert.Error(t, s.Validate())

	good := "https://lu.ma/demo"
	s.EventLink = &good
	require.NoError(t, s.Validate())
	assert.Equal(t, "Demo Cafe", s.Name)

	assert.Error(t, (&Store{Name: "x"}).Validate())
	assert.Error(t, (&Consumer{WalletAddress: "0x1"}).Validate())
}
