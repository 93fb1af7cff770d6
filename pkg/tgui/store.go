package tgui

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"tgmarkup/pkg/button"
)

var ErrTokenNotFound = errors.New("tgui: token not found")

// TokenStore keeps callback payloads that do not fit in a button server
// side. Buttons carry a short token instead ("~" plus 8 base64url chars),
// which never contains ':'.
type TokenStore struct {
	mu  sync.Mutex
	ttl time.Duration
	max int
	now func() time.Time

	sweepEvery time.Duration
	nextSweep  time.Time

	m map[string]storedPayload
}

type storedPayload struct {
	b   []byte
	exp time.Time
}

type StoreOption func(*TokenStore)

// WithTTL sets how long a token stays valid. Default 15m.
func WithTTL(d time.Duration) StoreOption {
	return func(s *TokenStore) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithMax caps live entries. Default 5000.
func WithMax(n int) StoreOption {
	return func(s *TokenStore) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TokenStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenStore(opts ...StoreOption) *TokenStore {
	s := &TokenStore{
		ttl:        15 * time.Minute,
		max:        5000,
		now:        time.Now,
		sweepEvery: time.Minute,
		m:          map[string]storedPayload{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Put stores a copy of b and returns its token.
func (s *TokenStore) Put(b []byte) string {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)

	var tok string
	for {
		tok = newToken()
		if _, taken := s.m[tok]; !taken {
			break
		}
	}
	s.m[tok] = storedPayload{b: append([]byte{}, b...), exp: now.Add(s.ttl)}
	s.evictLocked()
	return tok
}

func (s *TokenStore) PutJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return s.Put(b), nil
}

// Get returns the payload for tok. Expired tokens are dropped.
func (s *TokenStore) Get(tok string) ([]byte, bool) {
	if tok == "" {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[tok]
	if !ok {
		return nil, false
	}
	if now.After(e.exp) {
		delete(s.m, tok)
		return nil, false
	}
	return append([]byte(nil), e.b...), true
}

func (s *TokenStore) GetJSON(tok string, out any) error {
	b, ok := s.Get(tok)
	if !ok {
		return ErrTokenNotFound
	}
	return json.Unmarshal(b, out)
}

// StoredButton keeps v in the store and returns a callback button whose
// payload is the token.
func (s *TokenStore) StoredButton(text, plugin, action string, v any) (*button.Button, error) {
	tok, err := s.PutJSON(v)
	if err != nil {
		return nil, err
	}
	return CallbackButton(text, plugin, action, tok)
}

func (s *TokenStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, e := range s.m {
		if now.After(e.exp) {
			delete(s.m, k)
		}
	}
	s.nextSweep = now.Add(s.sweepEvery)
}

// evictLocked drops entries closest to expiry until under max.
func (s *TokenStore) evictLocked() {
	for len(s.m) > s.max {
		var oldest string
		var exp time.Time
		for k, e := range s.m {
			if oldest == "" || e.exp.Before(exp) {
				oldest, exp = k, e.exp
			}
		}
		delete(s.m, oldest)
	}
}

func newToken() string {
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return "~" + base64.RawURLEncoding.EncodeToString(buf[:])
}
