package peer

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/tg"
)

// Static resolves from a fixed set of users. It is read-only after
// construction and safe for concurrent use.
type Static struct {
	byName map[string]User
	byID   map[int64]User
}

func NewStatic(users ...User) *Static {
	s := &Static{
		byName: make(map[string]User, len(users)),
		byID:   make(map[int64]User, len(users)),
	}
	for _, u := range users {
		if u.ID == 0 {
			continue
		}
		s.byID[u.ID] = u
		if name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u.Username), "@")); name != "" {
			s.byName[name] = u
		}
	}
	return s
}

func (s *Static) ResolveUser(ctx context.Context, ref string) (tg.InputUserClass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	var (
		u  User
		ok bool
	)
	switch r.Kind {
	case RefSelf:
		return &tg.InputUserSelf{}, nil
	case RefUsername:
		u, ok = s.byName[r.Username]
	case RefID:
		u, ok = s.byID[r.ID]
	}
	if !ok {
		return nil, &ResolutionError{Ref: ref, Err: ErrNotFound}
	}
	return u.Input(), nil
}

// Username returns the known username for id.
func (s *Static) Username(id int64) (string, bool) {
	u, ok := s.byID[id]
	if !ok || u.Username == "" {
		return "", false
	}
	return strings.TrimPrefix(u.Username, "@"), true
}

// Chain tries each resolver in order and moves on only when one reports
// ErrNotFound. Any other error stops the chain.
type Chain []Resolver

func (c Chain) ResolveUser(ctx context.Context, ref string) (tg.InputUserClass, error) {
	var last error = &ResolutionError{Ref: ref, Err: ErrNotFound}
	for _, r := range c {
		if r == nil {
			continue
		}
		u, err := r.ResolveUser(ctx, ref)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		last = err
	}
	return nil, last
}
