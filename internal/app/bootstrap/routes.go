// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/tewell/reelhub/internal/app/features/authgoogle"
	commentsfeature "github.com/tewell/reelhub/internal/app/features/comments"
	healthfeature "github.com/tewell/reelhub/internal/app/features/health"
	loginfeature "github.com/tewell/reelhub/internal/app/features/login"
	logoutfeature "github.com/tewell/reelhub/internal/app/features/logout"
	profilefeature "github.com/tewell/reelhub/internal/app/features/profile"
	registerfeature "github.com/tewell/reelhub/internal/app/features/register"
	sessionstatefeature "github.com/tewell/reelhub/internal/app/features/sessionstate"
	"github.com/tewell/reelhub/internal/app/session"
	commentstore "github.com/tewell/reelhub/internal/app/store/comments"
	loginstore "github.com/tewell/reelhub/internal/app/store/logins"
	"github.com/tewell/reelhub/internal/app/store/oauthstate"
	profilestore "github.com/tewell/reelhub/internal/app/store/profiles"
	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/ratelimit"
	"github.com/tewell/reelhub/internal/app/system/websession"
)

// liveSessions and liveLimits are set by BuildHandler so Shutdown can close
// the in-process session stores and stop the rate limiter's sweepers when
// the app stops.
var (
	liveSessions *session.Manager
	liveLimits   *ratelimit.LoginLimiter
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ReelHub builds the auth provider and
// session managers here, applies the session gate's Load middleware
// globally, and mounts the JSON API features.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	web, err := websession.NewManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("web session manager init failed", zap.Error(err))
		return nil, err
	}

	// Backing stores.
	auth := authsvc.NewProvider(deps.MongoDatabase, logger)
	profiles := profilestore.New(deps.MongoDatabase, logger)
	comments := commentstore.New(deps.MongoDatabase, logger)
	logins := loginstore.New(deps.MongoDatabase)
	states := oauthstate.New(deps.MongoDatabase)

	// One session store per browser session, created on demand.
	sessions := session.NewManager(auth, profiles, logger)
	liveSessions = sessions

	g := gate.New(sessions, web, appCfg.GateWait, logger)

	limits := ratelimit.NewLoginLimiter(logger)
	liveLimits = limits

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators. Mounted
	// outside the session middleware so probes never mint a session.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Every request below gets its session store resolved into the context.
	r.Group(func(r chi.Router) {
		r.Use(g.Load)

		// Authentication.
		loginHandler := loginfeature.NewHandler(logins, limits, logger)
		r.Mount("/api/login", loginfeature.Routes(loginHandler))

		registerHandler := registerfeature.NewHandler(logins, logger)
		r.Mount("/api/register", registerfeature.Routes(registerHandler))

		logoutHandler := logoutfeature.NewHandler(sessions, web, logger)
		r.Mount("/api/logout", logoutfeature.Routes(logoutHandler))

		stateHandler := sessionstatefeature.NewHandler(appCfg.GateWait, logger)
		r.Mount("/api/session", sessionstatefeature.Routes(stateHandler))

		// Google OAuth (mounted only when configured).
		googleHandler := authgooglefeature.NewHandler(
			sessions, web, states, logins,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
			logger,
		)
		if googleHandler.IsConfigured() {
			r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		}

		// Profile routes require a signed-in session.
		profileHandler := profilefeature.NewHandler(logins, logger)
		r.Route("/api/profile", func(pr chi.Router) {
			pr.Use(g.RequireSession)
			pr.Mount("/", profilefeature.Routes(profileHandler))
		})

		// Movie comments: reads are public, the write is gated inside Routes.
		commentsHandler := commentsfeature.NewHandler(comments, logger)
		r.Mount("/api/movies/{movieID}/comments", commentsfeature.Routes(commentsHandler, g))
	})

	return r, nil
}
