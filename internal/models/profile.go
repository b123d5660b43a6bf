package models

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

type Role string

const (
	RoleConsumer     Role = "consumer"
	RoleStore        Role = "store"
	RoleUnregistered Role = "unregistered"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleConsumer:
		return RoleConsumer, nil
	case RoleStore:
		return RoleStore, nil
	}
	return "", errors.New("role must be consumer or store")
}

type Consumer struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Store struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	UniqueID      string    `json:"uniqueId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	EventLink     *string   `json:"eventLink,omitempty"`
	QRCode        string    `json:"qrCode,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfileSummary is the public part of either profile variant.
type ProfileSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress"`
}

func (c Consumer) Summary() *ProfileSummary {
	return &ProfileSummary{ID: c.ID, Name: c.Name, WalletAddress: c.WalletAddress}
}

func (s Store) Summary() *ProfileSummary {
	return &ProfileSummary{ID: s.ID, Name: s.Name, WalletAddress: s.WalletAddress}
}

// Identity is the result of resolving a wallet address. Exactly one of
// Consumer and Store is set unless Role is RoleUnregistered.
type Identity struct {
	Role     Role      `json:"role"`
	Consumer *Consumer `json:"consumer,omitempty"`
	Store    *Store    `json:"store,omitempty"`
}

// ProfileUpdate carries the mutable display fields. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	Description *string
	EventLink   *string
}

func (c *Consumer) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if strings.TrimSpace(c.WalletAddress) == "" {
		return errors.New("walletAddress required")
	}
	if c.Name == "" {
		return errors.New("name required")
	}
	return nil
}

func (s *Store) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if strings.TrimSpace(s.WalletAddress) == "" {
		return errors.New("walletAddress required")
	}
	if s.Name == "" {
		return errors.New("name required")
	}
	if s.EventLink != nil {
		if err := ValidateLink(*s.EventLink); err != nil {
			return err
		}
	}
	return nil
}

func ValidateLink(link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("eventLink must be an http(s) URL")
	}
	return nil
}
