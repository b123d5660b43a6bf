// Package qrcode renders the scannable code shown by a store and decodes
// what a consumer's scanner reads back.
package qrcode

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	PayloadTypeStore = "store"
	imageSize        = 320
	dataURLPrefix    = "data:image/png;base64,"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

var ErrInvalidPayload = errors.New("qrcode: unrecognised payload")

// Kind tags how a payload was recognised.
type Kind int

const (
	KindInvalid Kind = iota
	KindStructured
	KindIdentifier
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindIdentifier:
		return "identifier"
	}
	return "invalid"
}

// Payload is the decoded content of a scanned code.
type Payload struct {
	Kind     Kind
	UniqueID string
}

type storePayload struct {
	Type     string `json:"type"`
	UniqueID string `json:"uniqueId"`
}

// StorePayload is the text encoded into a store's code.
func StorePayload(uniqueID string) (string, error) {
	if !identifierRe.MatchString(uniqueID) {
		return "", ErrInvalidPayload
	}
	b, err := json.Marshal(storePayload{Type: PayloadTypeStore, UniqueID: uniqueID})
	return string(b), err
}

// EncodePNG renders the store payload as a PNG.
func EncodePNG(uniqueID string) ([]byte, error) {
	content, err := StorePayload(uniqueID)
	if err != nil {
		return nil, err
	}
	return goqrcode.Encode(content, goqrcode.Medium, imageSize)
}

// EncodeDataURL renders the store payload as a data URL ready to persist on
// the store record.
func EncodeDataURL(uniqueID string) (string, error) {
	png, err := EncodePNG(uniqueID)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// Decode classifies raw scanner text. It tries the structured JSON form, then
// a bare identifier or a URL ending in one, and otherwise fails.
func Decode(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrInvalidPayload
	}

	if strings.HasPrefix(raw, "{") {
		var p storePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Payload{}, ErrInvalidPayload
		}
		if p.Type != PayloadTypeStore || !identifierRe.MatchString(p.UniqueID) {
			return Payload{}, ErrInvalidPayload
		}
		return Payload{Kind: KindStructured, UniqueID: p.UniqueID}, nil
	}

	if identifierRe.MatchString(raw) {
		return Payload{Kind: KindIdentifier, UniqueID: raw}, nil
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		if last := path.Base(strings.TrimRight(u.Path, "/")); identifierRe.MatchString(last) {
			return Payload{Kind: KindIdentifier, UniqueID: last}, nil
		}
	}
	return Payload{}, ErrInvalidPayload
}
