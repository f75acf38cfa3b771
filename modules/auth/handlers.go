package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/platefeed/platefeed/core"
	"github.com/platefeed/platefeed/pkg/binder"
	"github.com/platefeed/platefeed/pkg/jwt"
	"github.com/platefeed/platefeed/pkg/logger"
	"github.com/platefeed/platefeed/pkg/validator"
)

const oauthStateCookie = "oauth_state"

// Handler exposes the authentication service over HTTP.
type Handler struct {
	svc      *Service
	resolver *Resolver
	tokens   *jwt.Service
	store    Store
	log      *slog.Logger

	// baseURL is where social callbacks land the browser after login.
	baseURL string
}

// NewHandler creates the HTTP handler for the authentication module.
func NewHandler(svc *Service, resolver *Resolver, tokens *jwt.Service, store Store, baseURL string, log *slog.Logger) *Handler {
	if log == nil {
		log = logger.Noop()
	}
	return &Handler{
		svc:      svc,
		resolver: resolver,
		tokens:   tokens,
		store:    store,
		log:      log,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Router mounts the module's routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/users", h.register)
	r.Post("/users/login", h.login)
	r.Get("/users/verify", h.verifyEmail)
	r.Post("/users/reset-password/email", h.requestReset)
	r.Post("/users/reset-password", h.completeReset)

	r.Route("/user", func(r chi.Router) {
		r.Use(Gatekeeper(h.tokens, h.store, h.log))
		r.Get("/", h.currentUser)
		r.Put("/", h.updateProfile)
	})

	r.Route("/auth/{provider}", func(r chi.Router) {
		r.Get("/", h.socialRedirect)
		r.Get("/callback", h.socialCallback)
	})

	return r
}

// userWithToken is the user payload carrying a fresh JWT, mirroring the
// login and registration responses clients expect.
type userWithToken struct {
	*User
	Token string `json:"token"`
}

// renderErr maps domain errors onto the JSON error envelope.
func (h *Handler) renderErr(w http.ResponseWriter, r *http.Request, err error) {
	var mapped error

	var dup *DuplicateError
	switch {
	case errors.As(err, &dup):
		mapped = core.ErrConflict.WithMessage(dup.Error())
	case errors.Is(err, ErrInvalidCredentials):
		mapped = core.ErrBadRequest.WithMessage("incorrect email or password")
	case errors.Is(err, ErrInvalidToken):
		mapped = core.ErrBadRequest.WithMessage("Invalid token, verification unsuccessful")
	case errors.Is(err, ErrUserNotFound):
		mapped = core.ErrNotFound.WithMessage("user does not exist")
	case errors.Is(err, ErrNoEmail):
		mapped = core.ErrBadRequest.WithMessage("social profile has no email address")
	case errors.Is(err, ErrUnknownProvider):
		mapped = core.ErrNotFound.WithMessage("unknown social provider")
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrUnsupportedMediaType):
		mapped = core.ErrBadRequest.WithMessage(err.Error())
	default:
		// Validation errors are handled by JSONError itself; anything
		// else is an internal failure worth logging.
		mapped = err
		var httpErr core.HTTPError
		if !errors.As(err, &httpErr) && !validator.IsValidationError(err) {
			h.log.Error("request failed",
				slog.String("path", r.URL.Path),
				logger.Error(err),
				logger.Component("auth"),
			)
		}
	}

	core.Render(w, r, core.JSONError(mapped))
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := binder.JSON(r, &req); err != nil {
		h.renderErr(w, r, err)
		return
	}

	result, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSONWithStatus(map[string]any{
		"user":      userWithToken{User: result.User, Token: result.Token},
		"emailSent": result.EmailSent,
	}, http.StatusCreated))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := binder.JSON(r, &req); err != nil {
		h.renderErr(w, r, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(map[string]any{
		"user": userWithToken{User: result.User, Token: result.Token},
	}))
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	tokenString, err := jwt.QueryTokenExtractor("token")(r)
	if err != nil {
		h.renderErr(w, r, ErrInvalidToken)
		return
	}

	user, err := h.svc.VerifyEmail(r.Context(), tokenString)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(map[string]any{
		"user":     user,
		"verified": true,
	}))
}

type resetRequestBody struct {
	Email string `json:"email"`
}

func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestBody
	if err := binder.JSON(r, &req); err != nil {
		h.renderErr(w, r, err)
		return
	}

	result, err := h.svc.RequestReset(r.Context(), req.Email)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(map[string]any{
		"email": result.Email,
		"sent":  true,
	}))
}

type completeResetBody struct {
	Password string `json:"password"`
}

func (h *Handler) completeReset(w http.ResponseWriter, r *http.Request) {
	tokenString, err := jwt.BearerTokenExtractor(r)
	if err != nil {
		h.renderErr(w, r, ErrInvalidToken)
		return
	}

	var req completeResetBody
	if err := binder.JSON(r, &req); err != nil {
		h.renderErr(w, r, err)
		return
	}

	user, err := h.svc.CompleteReset(r.Context(), tokenString, req.Password)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(map[string]any{"user": user}))
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.renderErr(w, r, core.ErrUnauthorized)
		return
	}
	core.Render(w, r, core.JSON(map[string]any{"user": user}))
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.renderErr(w, r, core.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := binder.JSON(r, &req); err != nil {
		h.renderErr(w, r, err)
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), user.ID, ProfileUpdate{
		Username: req.Username,
		Bio:      req.Bio,
		Image:    req.Image,
	})
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	core.Render(w, r, core.JSON(map[string]any{"user": updated}))
}

// socialRedirect sends the browser to the provider's consent page with
// a state value pinned in a short-lived cookie.
func (h *Handler) socialRedirect(w http.ResponseWriter, r *http.Request) {
	provider, err := h.resolver.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	state, err := randomState()
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	core.Render(w, r, core.Redirect(provider.AuthURL(state)))
}

// socialCallback completes the OAuth flow and redirects the browser to
// the application with the access token in the query string.
func (h *Handler) socialCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := h.resolver.Provider(chi.URLParam(r, "provider"))
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, cookieErr := r.Cookie(oauthStateCookie)
	if state == "" || cookieErr != nil || cookie.Value != state {
		h.renderErr(w, r, core.ErrBadRequest.WithMessage("invalid oauth state"))
		return
	}

	// Consume the state cookie regardless of the outcome.
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.renderErr(w, r, core.ErrBadRequest.WithMessage("missing authorization code"))
		return
	}

	profile, err := provider.ResolveProfile(r.Context(), code)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	result, err := h.resolver.Resolve(r.Context(), profile)
	if err != nil {
		h.renderErr(w, r, err)
		return
	}

	target := h.baseURL + "/?" + url.Values{"token": {result.Token}}.Encode()
	core.Render(w, r, core.Redirect(target))
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
