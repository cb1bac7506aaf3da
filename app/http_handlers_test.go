package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"
	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/auth"
)

// withTestClaims injects auth claims the way the middleware would.
func withTestClaims(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid != "" {
			ctx := auth.WithClaims(c.Request.Context(), &auth.Claims{Subject: uid})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func TestListenHandlerAccessGate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	st := storyFixture("s1", "owner")
	st.ShareToken = "tok-1"
	st.AudioURL = "https://cdn.test/stories/s1/audio.mp3"
	store.stories["s1"] = st
	a, _, _, _, _ := newTestApp(store)

	cases := []struct {
		name       string
		caller     string
		path       string
		wantStatus int
	}{
		{"owner", "owner", "/listen/s1", http.StatusOK},
		{"visitor with token", "visitor", "/listen/s1?token=tok-1", http.StatusOK},
		{"anonymous with token", "", "/listen/s1?token=tok-1", http.StatusOK},
		{"anonymous without token", "", "/listen/s1", http.StatusUnauthorized},
		{"visitor without token", "visitor", "/listen/s1", http.StatusForbidden},
		{"visitor with wrong token", "visitor", "/listen/s1?token=bad", http.StatusForbidden},
		{"unknown story", "owner", "/listen/missing", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/listen/:id", withTestClaims(tc.caller), a.ListenHandler)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.wantStatus != http.StatusOK {
				return
			}

			var resp listenStoryResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.ID != "s1" || resp.AudioURL == "" {
				t.Fatalf("unexpected payload: %+v", resp)
			}
			if wantOwner := tc.caller == "owner"; resp.IsOwner != wantOwner {
				t.Fatalf("isOwner = %v, want %v", resp.IsOwner, wantOwner)
			}
		})
	}
}

func TestMeBootstrapsMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	a, _, _, _, _ := newTestApp(store)

	r := gin.New()
	r.GET("/me", withTestClaims("fresh-user"), a.Me)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		SubscriptionStatus string `json:"subscriptionStatus"`
		Credits            int    `json:"credits"`
		HasCustomVoice     bool   `json:"hasCustomVoice"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SubscriptionStatus != string(models.StatusFree) || resp.Credits != 0 || resp.HasCustomVoice {
		t.Fatalf("unexpected snapshot: %+v", resp)
	}
	if _, ok := store.users["fresh-user"]; !ok {
		t.Fatalf("user row should be bootstrapped")
	}
}

func TestGenerateAudioHandlerDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	store.stories["s1"] = storyFixture("s1", "u1")
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusPremium, CustomVoiceID: "my-voice"}
	a, synth, _, _, _ := newTestApp(store)

	r := gin.New()
	r.POST("/api/stories/:id/audio", withTestClaims("u1"), a.GenerateAudioHandler)

	// Empty body: custom voice defaults on.
	req := httptest.NewRequest(http.MethodPost, "/api/stories/s1/audio", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := synth.calls[0].voiceID; got != "my-voice" {
		t.Fatalf("default voice = %q, want the custom voice", got)
	}

	// Explicit opt-out.
	body := strings.NewReader(`{"useCustomVoice": false, "force": true}`)
	req = httptest.NewRequest(http.MethodPost, "/api/stories/s1/audio", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := synth.calls[1].voiceID; got != "voice-female" {
		t.Fatalf("opt-out voice = %q, want the default narrator", got)
	}
}

func TestGenerateAudioHandlerInsufficientCredits(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	store.stories["s1"] = storyFixture("s1", "u1")
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusFree, Credits: 0}
	a, _, _, _, _ := newTestApp(store)

	r := gin.New()
	r.POST("/api/stories/:id/audio", withTestClaims("u1"), a.GenerateAudioHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/stories/s1/audio", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", w.Code)
	}
}

func TestCloneVoiceHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1", SubscriptionStatus: models.StatusFree}
	a, _, _, analytics, _ := newTestApp(store)

	r := gin.New()
	r.POST("/api/voice", withTestClaims("u1"), a.CloneVoiceHandler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "sample.mp3")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("sample-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := store.users["u1"].CustomVoiceID; got != "cloned-voice-1" {
		t.Fatalf("custom voice id = %q", got)
	}
	if analytics.named("voice_cloned") == nil {
		t.Fatalf("expected voice_cloned event")
	}
}

func TestCloneVoiceHandlerMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	store.users["u1"] = models.User{UID: "u1"}
	a, _, _, _, _ := newTestApp(store)

	r := gin.New()
	r.POST("/api/voice", withTestClaims("u1"), a.CloneVoiceHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/voice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
