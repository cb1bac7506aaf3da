package app

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

type checkoutRequest struct {
	PriceID string `json:"priceId" binding:"required"`
}

// CreateCheckoutSession starts a Stripe Checkout Session for the
// authenticated user and one of the configured prices.
func (a *App) CreateCheckoutSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, known := a.Prices.Grant(req.PriceID); !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown price"})
		return
	}

	customerID, err := a.ensureStripeCustomer(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.Subject).Msg("ensure stripe customer failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare billing"})
		return
	}

	sess, err := a.newCheckoutSession(claims.Subject, customerID, req.PriceID)
	if err != nil {
		log.Error().Err(err).Msg("stripe checkout session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// CreatePortalSession creates a Stripe Customer Portal session for the
// authenticated user.
func (a *App) CreatePortalSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	customerID, err := a.Users.StripeCustomerID(c.Request.Context(), claims.Subject)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.Subject).Msg("portal lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load customer"})
		return
	}
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stripe customer missing for user"})
		return
	}

	sess, err := a.newPortalSession(customerID)
	if err != nil {
		log.Error().Err(err).Msg("stripe portal session failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// StripeWebhook translates verified Stripe events into entitlement
// mutations. Deliveries are at-least-once; credit grants are deduplicated by
// event id.
func (a *App) StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		c.GetHeader("Stripe-Signature"),
		a.Cfg.Stripe.WebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook signature failed")
		webhookEvents.WithLabelValues("unknown", "bad_signature").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	eventType := string(event.Type)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
			return
		}
		a.handleCheckoutCompleted(c, event.ID, &sess)

	case "invoice.payment_succeeded":
		// Recurring renewals keep the status the checkout already set.
		log.Info().Str("event_id", event.ID).Msg("invoice paid")
		webhookEvents.WithLabelValues(eventType, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		n, err := a.Users.DowngradeSubscription(c.Request.Context(), sub.ID)
		if err != nil {
			log.Error().Err(err).Str("subscription_id", sub.ID).Msg("stripe downgrade failed")
			webhookEvents.WithLabelValues(eventType, "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
		log.Info().Str("subscription_id", sub.ID).Int64("users", n).Msg("subscription canceled, users downgraded")
		webhookEvents.WithLabelValues(eventType, "ok").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	default:
		// Intentionally ignore unhandled events.
		webhookEvents.WithLabelValues(eventType, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (a *App) handleCheckoutCompleted(c *gin.Context, eventID string, sess *stripe.CheckoutSession) {
	const eventType = "checkout.session.completed"

	uid := sess.Metadata["uid"]
	if uid == "" {
		// Not one of our sessions; acknowledge and move on.
		log.Warn().Str("session_id", sess.ID).Msg("checkout session missing uid metadata")
		webhookEvents.WithLabelValues(eventType, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	priceID := checkoutPriceID(sess)
	grant, known := a.Prices.Grant(priceID)
	if !known {
		log.Warn().Str("price_id", priceID).Str("session_id", sess.ID).Msg("checkout for unknown price")
		webhookEvents.WithLabelValues(eventType, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	subscriptionID := sess.ID
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}

	applied, err := a.Events.GrantCheckoutOnce(c.Request.Context(), eventID, uid, grant, customerID, subscriptionID)
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", uid).Msg("checkout grant failed")
		webhookEvents.WithLabelValues(eventType, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	if !applied {
		webhookEvents.WithLabelValues(eventType, "duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	log.Info().
		Str("user_id", uid).
		Str("price_id", priceID).
		Int("credits", grant.Credits).
		Str("status", string(grant.Status)).
		Msg("checkout grant applied")
	webhookEvents.WithLabelValues(eventType, "ok").Inc()

	a.Analytics.Capture(uid, "payment_completed", map[string]any{
		"price_id":      priceID,
		"credits_added": grant.Credits,
		"session_id":    sess.ID,
		"amount":        float64(sess.AmountTotal) / 100,
		"currency":      string(sess.Currency),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
