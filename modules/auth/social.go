package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/platefeed/platefeed/pkg/logger"
	"github.com/platefeed/platefeed/pkg/sanitizer"
)

// Profile is the normalized shape of an external identity, independent
// of which provider produced it.
type Profile struct {
	Provider    string
	Emails      []string
	DisplayName string
	Photos      []string
}

// Provider resolves an OAuth authorization code into a Profile.
type Provider interface {
	Name() string

	// AuthURL builds the provider's consent page URL. The state value
	// is echoed back on the callback.
	AuthURL(state string) string

	// ResolveProfile exchanges the authorization code and fetches the
	// external account's profile.
	ResolveProfile(ctx context.Context, code string) (*Profile, error)
}

// Resolver federates external identities into local accounts keyed by
// email address.
type Resolver struct {
	store          Store
	tokens         *Service
	providers      map[string]Provider
	log            *slog.Logger
	accessTokenTTL time.Duration
}

type ResolverOption func(*Resolver)

// WithResolverLogger sets a custom logger for the resolver.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a social identity resolver. The Service is used
// to issue access tokens so both login paths mint identical tokens.
func NewResolver(store Store, svc *Service, providers []Provider, opts ...ResolverOption) *Resolver {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	r := &Resolver{
		store:          store,
		tokens:         svc,
		providers:      byName,
		log:            logger.Noop(),
		accessTokenTTL: svc.accessTokenTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Provider returns the registered provider by name.
func (r *Resolver) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// SocialLoginResult pairs the federated user with an access token.
type SocialLoginResult struct {
	User    *User
	Token   string
	Created bool
}

// Resolve turns an external profile into a local session. Accounts are
// matched by email: an unknown email creates a new account, a known one
// logs into the existing account regardless of which provider owns it.
// On existing accounts the profile's username, image and provider
// overwrite the stored values, so the most recent provider wins.
func (r *Resolver) Resolve(ctx context.Context, p *Profile) (*SocialLoginResult, error) {
	if p == nil || len(p.Emails) == 0 || p.Emails[0] == "" {
		return nil, ErrNoEmail
	}

	email := sanitizer.NormalizeEmail(p.Emails[0])
	username := sanitizer.Trim(p.DisplayName)
	image := ""
	if len(p.Photos) > 0 {
		image = p.Photos[0]
	}

	user, created, err := r.store.FindOrCreateByEmail(ctx, NewUser{
		Username:       username,
		Email:          email,
		Image:          image,
		SocialProvider: p.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("federate %s identity: %w", p.Provider, err)
	}

	if !created {
		patch := Patch{SocialProvider: &p.Provider}
		if username != "" {
			patch.Username = &username
		}
		if image != "" {
			patch.Image = &image
		}
		id := user.ID
		user, err = r.store.Update(ctx, id, patch)
		if err != nil {
			if _, ok := IsDuplicateError(err); !ok {
				return nil, fmt.Errorf("refresh %s identity: %w", p.Provider, err)
			}
			// The profile's display name belongs to someone else; keep
			// the stored username and update the rest.
			patch.Username = nil
			user, err = r.store.Update(ctx, id, patch)
			if err != nil {
				return nil, fmt.Errorf("refresh %s identity: %w", p.Provider, err)
			}
		}
	}

	token, err := r.tokens.issueToken(user, r.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	r.log.Info("social login",
		logger.UserID(user.ID),
		logger.Provider(p.Provider),
		slog.Bool("created", created),
		logger.Component("auth"),
	)

	return &SocialLoginResult{User: user.Sanitized(), Token: token, Created: created}, nil
}
