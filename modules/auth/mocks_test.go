package auth_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/platefeed/platefeed/modules/auth"
	"github.com/platefeed/platefeed/pkg/email"
	"github.com/platefeed/platefeed/pkg/jwt"
)

// recordingSender captures outgoing emails instead of dispatching them.
type recordingSender struct {
	mu    sync.Mutex
	sent  []email.SendEmailParams
	err   error
	delay time.Duration
}

func (s *recordingSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, params)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSender) last() email.SendEmailParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return email.SendEmailParams{}
	}
	return s.sent[len(s.sent)-1]
}

// fakeProvider resolves every code into a canned profile.
type fakeProvider struct {
	name    string
	profile *auth.Profile
	err     error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://provider.example/consent?state=" + state
}

func (p *fakeProvider) ResolveProfile(ctx context.Context, code string) (*auth.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

var errSendFailed = errors.New("smtp said no")

// verifyTokenFromEmail pulls the verification token out of the last
// captured email body.
func verifyTokenFromEmail(t *testing.T, env *testEnv) string {
	t.Helper()

	body := env.sender.last().BodyHTML
	marker := "verify?token="
	idx := strings.Index(body, marker)
	require.NotEqual(t, -1, idx, "no verification link in email body")

	rest := body[idx+len(marker):]
	end := strings.IndexAny(rest, `"<`)
	require.NotEqual(t, -1, end)

	token, err := url.QueryUnescape(rest[:end])
	require.NoError(t, err)
	return token
}

// mintToken signs a token for the user with the test environment's key.
func mintToken(t *testing.T, env *testEnv, user *auth.User, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	token, err := env.tokens.Generate(auth.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwt.NumericDate(now),
			ExpiresAt: jwt.NumericDate(now.Add(ttl)),
		},
	})
	require.NoError(t, err)
	return token
}

type testEnv struct {
	store  auth.Store
	tokens *jwt.Service
	sender *recordingSender
	svc    *auth.Service
}

func newTestEnv(opts ...auth.Option) *testEnv {
	store := auth.NewMemoryStore()
	tokens, err := jwt.NewFromString("test-signing-secret-at-least-32-bytes")
	if err != nil {
		panic(err)
	}
	sender := &recordingSender{}
	mailer := auth.NewMailer(sender, "Platefeed", "https://platefeed.test")

	base := []auth.Option{
		auth.WithHasher(auth.NewHasher(bcrypt.MinCost)),
		auth.WithMailWait(250 * time.Millisecond),
	}
	svc := auth.NewService(store, tokens, mailer, append(base, opts...)...)

	return &testEnv{store: store, tokens: tokens, sender: sender, svc: svc}
}
