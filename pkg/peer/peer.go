// Package peer turns user references into MTProto input users.
//
// Button kinds that point at a user (login-auth bots, profile mentions) need
// a resolved tg.InputUserClass. Resolving a username or id is owned by a
// Resolver; converting an already-resolved input peer is done locally by
// InputUser.
package peer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

var (
	ErrNotFound = errors.New("peer: not found")
	ErrNotUser  = errors.New("peer: not a user")
	ErrBadRef   = errors.New("peer: malformed reference")
)

// ResolutionError reports a reference that could not be turned into a user.
type ResolutionError struct {
	Ref string
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("peer: resolve: %v", e.Err)
	}
	return fmt.Sprintf("peer: resolve %q: %v", e.Ref, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver maps a textual reference ("me", "@name", "12345") to an input user.
// Implementations may block (database, network) and must honor ctx.
type Resolver interface {
	ResolveUser(ctx context.Context, ref string) (tg.InputUserClass, error)
}

// User is a cached user identity.
type User struct {
	ID         int64
	AccessHash int64
	Username   string
}

// Input returns the input form of u.
func (u User) Input() tg.InputUserClass {
	return &tg.InputUser{UserID: u.ID, AccessHash: u.AccessHash}
}

type RefKind uint8

const (
	RefSelf RefKind = iota
	RefUsername
	RefID
)

// Ref is a parsed user reference.
type Ref struct {
	Kind     RefKind
	Username string // lower-cased, without '@'
	ID       int64
}

// ParseRef classifies s. Empty, "me" and "self" mean the current account.
// Usernames may be given as "name", "@name" or a t.me link.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "me", "self":
		return Ref{Kind: RefSelf}, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id <= 0 {
			return Ref{}, &ResolutionError{Ref: s, Err: ErrBadRef}
		}
		return Ref{Kind: RefID, ID: id}, nil
	}

	name := s
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/", "@"} {
		if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = name[len(prefix):]
			break
		}
	}
	if !validUsername(name) {
		return Ref{}, &ResolutionError{Ref: s, Err: ErrBadRef}
	}
	return Ref{Kind: RefUsername, Username: strings.ToLower(name)}, nil
}

// Usernames start with a letter and use [a-zA-Z0-9_].
func validUsername(s string) bool {
	if len(s) < 2 || len(s) > 32 {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case (r >= '0' && r <= '9') || r == '_':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// InputUser converts an input peer into an input user without any lookup.
func InputUser(p tg.InputPeerClass) (tg.InputUserClass, error) {
	switch v := p.(type) {
	case nil:
		return &tg.InputUserSelf{}, nil
	case *tg.InputPeerSelf:
		return &tg.InputUserSelf{}, nil
	case *tg.InputPeerUser:
		return &tg.InputUser{UserID: v.UserID, AccessHash: v.AccessHash}, nil
	case *tg.InputPeerUserFromMessage:
		return &tg.InputUserFromMessage{Peer: v.Peer, MsgID: v.MsgID, UserID: v.UserID}, nil
	default:
		return nil, &ResolutionError{Ref: fmt.Sprintf("%T", p), Err: ErrNotUser}
	}
}

// CheckUser rejects input users that cannot be sent to the server.
func CheckUser(u tg.InputUserClass) error {
	switch u.(type) {
	case nil, *tg.InputUserEmpty:
		return &ResolutionError{Err: ErrNotUser}
	}
	return nil
}
