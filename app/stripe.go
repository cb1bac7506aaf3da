package app

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
)

// InitStripe wires the Stripe API key into the SDK. Called once at startup.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

// ensureStripeCustomer finds or creates a Stripe Customer for the given user
// and stores the id on the user row.
func (a *App) ensureStripeCustomer(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", errors.New("missing uid")
	}

	id, err := a.Users.StripeCustomerID(ctx, uid)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"uid": uid,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	if err := a.Users.SetStripeCustomerID(ctx, uid, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// newCheckoutSession builds a checkout session for one of the configured
// prices. The uid and price id ride along in metadata so the webhook can
// apply the grant without extra API round trips.
func (a *App) newCheckoutSession(uid, customerID, priceID string) (*stripe.CheckoutSession, error) {
	mode := string(stripe.CheckoutSessionModeSubscription)
	if a.Prices.Mode(priceID) == ModePayment {
		mode = string(stripe.CheckoutSessionModePayment)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(mode),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"uid":     uid,
			"priceId": priceID,
		},
		SuccessURL: stripe.String(a.Cfg.Frontend.URL + "/billing/success"),
		CancelURL:  stripe.String(a.Cfg.Frontend.URL + "/billing/cancel"),
	}
	return session.New(params)
}

func (a *App) newPortalSession(customerID string) (*stripe.BillingPortalSession, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(a.Cfg.Frontend.URL + "/account"),
	}
	return portal.New(params)
}

// checkoutPriceID extracts the purchased price from a completed session.
// Sessions we create carry it in metadata; for sessions created elsewhere we
// fall back to listing line items via the API.
func checkoutPriceID(sess *stripe.CheckoutSession) string {
	if id := sess.Metadata["priceId"]; id != "" {
		return id
	}
	iter := session.ListLineItems(&stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sess.ID),
	})
	for iter.Next() {
		li := iter.LineItem()
		if li.Price != nil {
			return li.Price.ID
		}
	}
	return ""
}
