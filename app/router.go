// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"time"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func (a *App) NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/stripe/webhook", a.StripeWebhook)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	// Playback is public but gated at the application layer: owners via
	// their (optional) token, everyone else via the share token.
	router.GET("/listen/:id", auth.OptionalMiddleware(verifier), a.ListenHandler)

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return a.Users.UpsertUser(c.Request.Context(), claims.Subject, claims.Email(), claims.Name())
		},
	}))
	protected.GET("/me", a.Me)
	protected.POST("/api/stories", a.CreateStoryHandler)
	protected.POST("/api/stories/:id/audio", a.GenerateAudioHandler)
	protected.POST("/api/stories/:id/share", a.CreateShareLinkHandler)
	protected.POST("/api/voice", a.CloneVoiceHandler)
	protected.POST("/api/billing/create-checkout-session", a.CreateCheckoutSession)
	protected.POST("/api/billing/portal-session", a.CreatePortalSession)

	return router, nil
}
