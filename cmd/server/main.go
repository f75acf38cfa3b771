package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/platefeed/platefeed/modules/auth"
	"github.com/platefeed/platefeed/pkg/config"
	"github.com/platefeed/platefeed/pkg/email"
	"github.com/platefeed/platefeed/pkg/httpserver"
	"github.com/platefeed/platefeed/pkg/jwt"
	"github.com/platefeed/platefeed/pkg/logger"
	"github.com/platefeed/platefeed/pkg/pg"
	"github.com/platefeed/platefeed/pkg/requestid"
)

type appConfig struct {
	Name    string `env:"APP_NAME" envDefault:"Platefeed"`
	BaseURL string `env:"BASE_URL,required"`

	// Directory the development mail sender writes to when Postmark is
	// not configured.
	DevMailDir string `env:"DEV_MAIL_DIR" envDefault:"./tmp/mail"`
}

func main() {
	var (
		appCfg    appConfig
		logCfg    logger.Config
		pgCfg     pg.Config
		httpCfg   httpserver.Config
		emailCfg  email.Config
		authCfg   auth.Config
		googleCfg auth.GoogleConfig
		fbCfg     auth.FacebookConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&emailCfg)
	config.MustLoad(&authCfg)
	config.MustLoad(&googleCfg)
	config.MustLoad(&fbCfg)

	log := logger.New(os.Stdout, logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("database connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("migrations failed", logger.Error(err))
		os.Exit(1)
	}

	var sender email.EmailSender
	if emailCfg.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkClient(emailCfg)
		if err != nil {
			log.Error("postmark setup failed", logger.Error(err))
			os.Exit(1)
		}
	} else {
		log.Warn("postmark not configured, writing emails to disk",
			"dir", appCfg.DevMailDir)
		sender = email.NewDevSender(appCfg.DevMailDir)
	}

	tokens, err := jwt.NewFromString(authCfg.Secret)
	if err != nil {
		log.Error("jwt setup failed", logger.Error(err))
		os.Exit(1)
	}

	store := auth.NewPgStore(pool)
	mailer := auth.NewMailer(sender, appCfg.Name, appCfg.BaseURL)

	svc := auth.NewService(store, tokens, mailer,
		auth.WithLogger(log),
		auth.WithHasher(auth.NewHasher(authCfg.BcryptCost)),
		auth.WithAccessTokenTTL(authCfg.AccessTokenTTL),
		auth.WithVerifyTokenTTL(authCfg.VerifyTokenTTL),
		auth.WithResetTokenTTL(authCfg.ResetTokenTTL),
		auth.WithMailWait(authCfg.MailWait),
	)

	var providers []auth.Provider
	if googleCfg.Enabled() {
		providers = append(providers, auth.NewGoogleProvider(googleCfg))
	}
	if fbCfg.Enabled() {
		providers = append(providers, auth.NewFacebookProvider(fbCfg))
	}
	resolver := auth.NewResolver(store, svc, providers, auth.WithResolverLogger(log))

	handler := auth.NewHandler(svc, resolver, tokens, store, appCfg.BaseURL, log)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log, pg.Healthcheck(pool)))
	r.Mount("/", handler.Router())

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}
