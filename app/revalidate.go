package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// FrontendRevalidator pings the frontend's on-demand revalidation endpoint so
// cached story pages pick up new audio URLs and share tokens. Fire-and-forget:
// a failed ping is logged, never surfaced.
type FrontendRevalidator struct {
	url    string
	secret string
	httpc  *http.Client
}

func NewFrontendRevalidator(frontendURL, secret string) *FrontendRevalidator {
	return &FrontendRevalidator{
		url:    frontendURL,
		secret: secret,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *FrontendRevalidator) Revalidate(paths ...string) {
	if r.url == "" || len(paths) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		payload, err := json.Marshal(map[string]any{
			"paths":  paths,
			"secret": r.secret,
		})
		if err != nil {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/api/revalidate", bytes.NewReader(payload))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := r.httpc.Do(req)
		if err != nil {
			log.Warn().Err(err).Strs("paths", paths).Msg("revalidate ping failed")
			return
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			log.Warn().Int("status", res.StatusCode).Strs("paths", paths).Msg("revalidate ping rejected")
		}
	}()
}

// NopRevalidator is used when no frontend URL is configured.
type NopRevalidator struct{}

func (NopRevalidator) Revalidate(...string) {}
