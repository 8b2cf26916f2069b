package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/mail"
	"github.com/aussiebroadwan/lms/internal/lms/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

var testBase = time.Unix(1_700_000_000, 0).UTC()

// testClock is a settable clock shared by the token issuer under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

// outbox records sent mail.
type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) last() mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

type testEnv struct {
	clock    *testClock
	store    *sqlite.Store
	tokens   *TokenIssuer
	sessions *SessionManager
	gate     *Gate
	accounts *AccountService
	outbox   *outbox
}

func newTestConfig(clock *testClock) TokenConfig {
	return TokenConfig{
		Issuer:           "lms-test",
		AccessSecret:     []byte("access-secret"),
		RefreshSecret:    []byte("refresh-secret"),
		ActivationSecret: []byte("activation-secret"),
		Now:              clock.Now,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &testClock{now: testBase}
	tokens, err := NewTokenIssuer(newTestConfig(clock))
	require.NoError(t, err)

	sessions := &SessionManager{Tokens: tokens, Sessions: st}
	box := &outbox{}

	return &testEnv{
		clock:    clock,
		store:    st,
		tokens:   tokens,
		sessions: sessions,
		gate:     &Gate{Tokens: tokens, Sessions: sessions},
		accounts: &AccountService{
			Store:      st,
			Sessions:   sessions,
			Activation: &ActivationService{Tokens: tokens, Store: st},
			Mailer:     box,
		},
		outbox: box,
	}
}

// codeFromBody pulls the 4-digit code out of an activation email.
func codeFromBody(t *testing.T, body string) string {
	t.Helper()
	for i := 0; i+4 <= len(body); i++ {
		chunk := body[i : i+4]
		digits := true
		for _, r := range chunk {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if digits {
			return chunk
		}
	}
	t.Fatalf("no activation code in %q", body)
	return ""
}
