package app

import (
	"fmt"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/config"
	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
)

type CheckoutMode string

const (
	ModePayment      CheckoutMode = "payment"
	ModeSubscription CheckoutMode = "subscription"
)

// CreditGrant is what a completed checkout for one price awards. A zero
// Status means the purchase does not change the subscription state (one-time
// bundles).
type CreditGrant struct {
	Credits int
	Status  models.SubscriptionStatus
	Mode    CheckoutMode
}

// PriceTable maps Stripe price ids to grants. Built once at startup from
// config; lookups at webhook time are table-driven, not conditionals.
type PriceTable struct {
	grants map[string]CreditGrant
}

func NewPriceTable(cfg config.StripeConfig) (*PriceTable, error) {
	entries := []struct {
		priceID string
		name    string
		grant   CreditGrant
	}{
		{cfg.PriceIDWeekend, "STRIPE_PRICE_WEEKEND", CreditGrant{Credits: 5, Mode: ModePayment}},
		{cfg.PriceIDMonthly, "STRIPE_PRICE_MONTHLY", CreditGrant{Credits: 30, Status: models.StatusPremium, Mode: ModeSubscription}},
		{cfg.PriceIDAnnual, "STRIPE_PRICE_ANNUAL", CreditGrant{Credits: 365, Status: models.StatusPremium, Mode: ModeSubscription}},
	}

	grants := make(map[string]CreditGrant, len(entries))
	for _, e := range entries {
		if e.priceID == "" {
			return nil, ConfigurationError{Missing: e.name}
		}
		if _, dup := grants[e.priceID]; dup {
			return nil, fmt.Errorf("duplicate stripe price id %q", e.priceID)
		}
		grants[e.priceID] = e.grant
	}
	return &PriceTable{grants: grants}, nil
}

// Grant looks up the grant for a price id. Unknown prices are not an error
// at the table level; the webhook ignores them.
func (t *PriceTable) Grant(priceID string) (CreditGrant, bool) {
	g, ok := t.grants[priceID]
	return g, ok
}

// Mode returns the checkout mode for a price id, defaulting to subscription.
func (t *PriceTable) Mode(priceID string) CheckoutMode {
	if g, ok := t.grants[priceID]; ok {
		return g.Mode
	}
	return ModeSubscription
}
