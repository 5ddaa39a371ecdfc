// Package session keeps the client's bearer token and username between runs
// and decides at startup whether the user has to log in again.
package session

import (
	"context"
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNoSession is returned by a Store holding no session.
	ErrNoSession = errors.New("no stored session")

	// ErrLoginRequired means the user must log in before continuing.
	ErrLoginRequired = errors.New("login required")
)

// GuestName is shown when nobody is logged in.
const GuestName = "Guest"

// Session is the identity persisted on the client.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// DisplayName returns the username with its first letter upper-cased, or
// GuestName when there is none.
func (s Session) DisplayName() string {
	if s.Username == "" {
		return GuestName
	}
	r, size := utf8.DecodeRuneInString(s.Username)
	return string(unicode.ToUpper(r)) + s.Username[size:]
}

// Store persists a single session.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
