package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/config"
	"github.com/dmitrijs2005/sevr/internal/server/events"
	"github.com/dmitrijs2005/sevr/internal/server/repositories/repomanager"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentCode struct {
	email, code string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (s *recordingSender) SendCode(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentCode{email, code})
	return s.err
}

type recordingNotifier struct {
	signups []events.Signup
}

func (n *recordingNotifier) UserSignedUp(_ context.Context, e events.Signup) {
	n.signups = append(n.signups, e)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	return cfg
}

func discardLogger() logging.Logger {
	return logging.NewJSONLogger(io.Discard, "error")
}

// fixedCodes hands out codes in order and repeats the last one.
func fixedCodes(codes ...string) func() (string, error) {
	var i int
	return func() (string, error) {
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c, nil
	}
}

type testEnv struct {
	rm       *repomanager.InMemoryRepositoryManager
	cfg      *config.Config
	clock    *testClock
	sender   *recordingSender
	notifier *recordingNotifier
	otp      *OTPManager
	tokens   *TokenService
	auth     *AuthService
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()
	if len(codes) == 0 {
		codes = []string{"123456"}
	}

	e := &testEnv{
		rm:       repomanager.NewInMemoryRepositoryManager(),
		cfg:      testConfig(),
		clock:    newTestClock(),
		sender:   &recordingSender{},
		notifier: &recordingNotifier{},
	}

	e.otp = NewOTPManager(e.rm, e.sender, discardLogger())
	e.otp.now = e.clock.Now
	e.otp.newCode = fixedCodes(codes...)

	e.tokens = NewTokenService(e.rm, e.cfg)
	e.tokens.now = e.clock.Now

	e.auth = NewAuthService(e.rm, e.otp, e.tokens, e.cfg, e.notifier, discardLogger())
	e.auth.now = e.clock.Now
	return e
}
