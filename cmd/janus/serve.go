package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/janus/internal/cache"
	"github.com/dropDatabas3/janus/internal/config"
	"github.com/dropDatabas3/janus/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/janus/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/janus/internal/http/controllers/oauth"
	oidcctrl "github.com/dropDatabas3/janus/internal/http/controllers/oidc"
	sessionctrl "github.com/dropDatabas3/janus/internal/http/controllers/session"
	"github.com/dropDatabas3/janus/internal/http/router"
	oauthsvc "github.com/dropDatabas3/janus/internal/http/services/oauth"
	oidcsvc "github.com/dropDatabas3/janus/internal/http/services/oidc"
	"github.com/dropDatabas3/janus/internal/http/services/session"
	"github.com/dropDatabas3/janus/internal/jwt"
	"github.com/dropDatabas3/janus/internal/ledger"
	"github.com/dropDatabas3/janus/internal/metrics"
	"github.com/dropDatabas3/janus/internal/oauth"
	"github.com/dropDatabas3/janus/internal/observability/logger"
	"github.com/dropDatabas3/janus/internal/store/memory"
	"github.com/dropDatabas3/janus/internal/store/pg"
)

const shutdownTimeout = 10 * time.Second

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		ServiceName: "janus",
		Version:     version,
	})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache: sesiones, access tokens opacos y (con redis) el ledger de codes.
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheClient.Close()

	signingKey, err := cfg.SigningKeyBytes()
	if err != nil {
		return err
	}
	issuer, err := jwt.NewIssuer(cfg.OAuth.Issuer, signingKey)
	if err != nil {
		return fmt.Errorf("jwt issuer: %w", err)
	}
	issuer.TokenTTL = cfg.TokenTTL()
	issuer.CodeTTL = cfg.CodeTTL()

	tokenIssuer := oauth.NewTokenIssuer(issuer)
	codec := oauth.NewContinuationCodec(issuer)
	codec.TTL = cfg.ContinuationTTL()

	// Storage: repos contra postgres o mapas en proceso según el driver.
	var (
		clients repository.ClientRepository
		users   repository.UserRepository
		grants  repository.GrantRepository
		pinger  healthctrl.Pinger
	)
	switch cfg.Storage.Driver {
	case "postgres":
		var lifetime time.Duration
		if cfg.Storage.Postgres.ConnMaxLifetime != "" {
			lifetime, _ = time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		}
		st, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
			MinConns:        int32(cfg.Storage.Postgres.MinConns),
			MaxConnLifetime: lifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer st.Close()
		clients, users, grants, pinger = st.Clients, st.Users, st.Grants, st
	default:
		st := memory.NewStore()
		if err := seedMemory(ctx, st, cfg); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		clients, users, grants = st.Clients, st.Users, st.Grants
	}

	// Ledger de authorization codes: compartido via cache cuando hay redis,
	// in-process para single-node.
	var codeLedger ledger.Ledger
	if cfg.Cache.Kind == "redis" {
		codeLedger = ledger.NewCacheLedger(cacheClient, tokenIssuer)
	} else {
		codeLedger = ledger.NewMemoryLedger(tokenIssuer)
	}

	sessions := session.New(cacheClient, cfg.Auth.Session.CookieName, cfg.SessionTTL())
	sessions.Secure = cfg.Auth.Session.Secure
	sessions.SameSite = parseSameSite(cfg.Auth.Session.SameSite)

	accessTokens := oauthsvc.NewAccessTokenStore(cacheClient, cfg.TokenTTL())

	siteOpts := oauth.SiteOptions{RequireOpenIDScope: !cfg.OAuth.DisableOpenIDScopeCheck}

	authorizeSvc := oauthsvc.NewAuthorizeService(oauthsvc.AuthorizeDeps{
		Clients:      clients,
		Grants:       grants,
		Codec:        codec,
		Ledger:       codeLedger,
		Sessions:     sessions,
		AccessTokens: accessTokens,
		SiteOpts:     siteOpts,
		LoginURL:     cfg.OAuth.LoginURL,
	})
	consentSvc := oauthsvc.NewConsentService(oauthsvc.ConsentDeps{
		Clients:  clients,
		Grants:   grants,
		Codec:    codec,
		Sessions: sessions,
	})
	tokenSvc := oauthsvc.NewTokenService(oauthsvc.TokenDeps{
		Clients:      clients,
		Ledger:       codeLedger,
		AccessTokens: accessTokens,
	})
	discoverySvc := oidcsvc.NewDiscoveryService(cfg.OAuth.Issuer)
	userinfoSvc := oidcsvc.NewUserinfoService(users, accessTokens)

	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Authorize: oauthctrl.NewAuthorizeController(authorizeSvc),
		Consent:   oauthctrl.NewConsentController(consentSvc),
		Token:     oauthctrl.NewTokenController(tokenSvc),
		Discovery: oidcctrl.NewDiscoveryController(discoverySvc),
		Userinfo:  oidcctrl.NewUserinfoController(userinfoSvc),
		Login:     sessionctrl.NewLoginController(users, sessions),
		Health:    healthctrl.NewController(cacheClient, pinger),

		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("issuer", cfg.OAuth.Issuer),
			logger.String("storage", cfg.Storage.Driver),
			logger.String("cache", cfg.Cache.Kind),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", logger.Err(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// seedMemory carga los clients y usuarios del YAML (solo driver memory).
func seedMemory(ctx context.Context, st *memory.Store, cfg *config.Config) error {
	clients := make([]repository.ClientInput, 0, len(cfg.Seed.Clients))
	for _, c := range cfg.Seed.Clients {
		clients = append(clients, repository.ClientInput{
			ClientID:     c.ClientID,
			Name:         c.Name,
			Secret:       c.Secret,
			RedirectURIs: c.RedirectURIs,
		})
	}
	users := make([]repository.User, 0, len(cfg.Seed.Users))
	for _, u := range cfg.Seed.Users {
		users = append(users, repository.User{
			ID:            u.ID,
			Username:      u.Username,
			Email:         u.Email,
			EmailVerified: u.EmailVerified,
			Name:          u.Name,
		})
	}
	return st.Seed(ctx, clients, users)
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
