package app

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app/models"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store is the Postgres-backed user/story store. All credit mutations go
// through relative UPDATE statements so concurrent writers never lose an
// update.
type Store struct {
	db *sql.DB
}

// NewStore connects to Postgres and applies pending migrations.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db.Ping: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	log.Info().Msg("connected to postgres")
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// --- users ---

func (s *Store) GetUser(ctx context.Context, uid string) (models.User, error) {
	var (
		u        models.User
		email    sql.NullString
		name     sql.NullString
		voiceID  sql.NullString
		custID   sql.NullString
		subID    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, email, name, subscription_status, credits,
		       custom_voice_id, stripe_customer_id, subscription_id, created_at
		FROM users
		WHERE uid = $1;
	`, uid).Scan(&u.UID, &email, &name, &u.SubscriptionStatus, &u.Credits,
		&voiceID, &custID, &subID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.Email = email.String
	u.Name = name.String
	u.CustomVoiceID = voiceID.String
	u.StripeCustomerID = custID.String
	u.SubscriptionID = subID.String
	return u, nil
}

// UpsertUser creates a user row on first authenticated request. Existing rows
// are left untouched.
func (s *Store) UpsertUser(ctx context.Context, uid, email, name string) error {
	if uid == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, name, subscription_status, credits)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (uid) DO NOTHING;
	`, uid, nullIfEmpty(email), nullIfEmpty(name), models.StatusFree)
	return err
}

// AddCredits applies a relative credit change. delta may be negative; the
// entitlement check happens before this call, not here.
func (s *Store) AddCredits(ctx context.Context, uid string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET credits = credits + $1, updated_at = now()
		WHERE uid = $2;
	`, delta, uid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetCustomVoice(ctx context.Context, uid, voiceID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET custom_voice_id = $1, updated_at = now()
		WHERE uid = $2;
	`, voiceID, uid)
	return err
}

func (s *Store) StripeCustomerID(ctx context.Context, uid string) (string, error) {
	var id sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT stripe_customer_id FROM users WHERE uid = $1;
	`, uid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return id.String, nil
}

func (s *Store) SetStripeCustomerID(ctx context.Context, uid, customerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET stripe_customer_id = $1, updated_at = now()
		WHERE uid = $2;
	`, customerID, uid)
	return err
}

// DowngradeSubscription resets every user on the canceled subscription to
// free. Credits already granted are not clawed back.
func (s *Store) DowngradeSubscription(ctx context.Context, subscriptionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET subscription_status = $1, updated_at = now()
		WHERE subscription_id = $2;
	`, models.StatusFree, subscriptionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- stories ---

func (s *Store) GetStory(ctx context.Context, id string) (models.Story, error) {
	var (
		st         models.Story
		body       []byte
		prompts    []byte
		audioURL   sql.NullString
		shareToken sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, profile_id, child_name, title, mood, age_group,
		       minutes, excerpt, body, dialogic_prompts, audio_url, share_token, created_at
		FROM stories
		WHERE id = $1;
	`, id).Scan(&st.ID, &st.UserID, &st.ProfileID, &st.ChildName, &st.Title,
		&st.Mood, &st.AgeGroup, &st.Minutes, &st.Excerpt, &body, &prompts,
		&audioURL, &shareToken, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Story{}, ErrStoryNotFound
	}
	if err != nil {
		return models.Story{}, err
	}
	if err := json.Unmarshal(body, &st.Body); err != nil {
		return models.Story{}, fmt.Errorf("story %s: bad body json: %w", id, err)
	}
	if err := json.Unmarshal(prompts, &st.DialogicPrompts); err != nil {
		return models.Story{}, fmt.Errorf("story %s: bad prompts json: %w", id, err)
	}
	st.AudioURL = audioURL.String
	st.ShareToken = shareToken.String
	return st, nil
}

func (s *Store) InsertStory(ctx context.Context, st models.Story) error {
	body, err := json.Marshal(st.Body)
	if err != nil {
		return err
	}
	prompts, err := json.Marshal(st.DialogicPrompts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stories (id, user_id, profile_id, child_name, title, mood,
		                     age_group, minutes, excerpt, body, dialogic_prompts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`, st.ID, st.UserID, st.ProfileID, st.ChildName, st.Title, st.Mood,
		st.AgeGroup, st.Minutes, st.Excerpt, body, prompts)
	return err
}

// ClaimAudioURL sets the story's audio URL only when none is present yet.
// Returns true when this call won the claim; a false return means another
// writer already set a URL (first write wins).
func (s *Store) ClaimAudioURL(ctx context.Context, id, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stories
		SET audio_url = $1
		WHERE id = $2 AND audio_url IS NULL;
	`, url, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ForceAudioURL overwrites the audio URL unconditionally (force regeneration).
func (s *Store) ForceAudioURL(ctx context.Context, id, url string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stories SET audio_url = $1 WHERE id = $2;
	`, url, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// EnsureShareToken persists candidate as the story's share token unless one
// already exists, and returns the canonical token either way.
func (s *Store) EnsureShareToken(ctx context.Context, id, candidate string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		UPDATE stories
		SET share_token = COALESCE(share_token, $1)
		WHERE id = $2
		RETURNING share_token;
	`, candidate, id).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrStoryNotFound
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// --- stripe events ---

// GrantCheckoutOnce records the webhook event id and applies the credit
// grant in one transaction. A duplicate delivery finds the event row already
// present and returns false without touching the user.
func (s *Store) GrantCheckoutOnce(ctx context.Context, eventID, uid string, grant CreditGrant, customerID, subscriptionID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO stripe_events (event_id, event_type)
		VALUES ($1, 'checkout.session.completed')
		ON CONFLICT (event_id) DO NOTHING;
	`, eventID)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE users
		SET credits = credits + $1,
		    subscription_status = COALESCE(NULLIF($2, ''), subscription_status),
		    stripe_customer_id = COALESCE(NULLIF($3, ''), stripe_customer_id),
		    subscription_id = COALESCE(NULLIF($4, ''), subscription_id),
		    updated_at = now()
		WHERE uid = $5;
	`, grant.Credits, string(grant.Status), customerID, subscriptionID, uid)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkEventProcessed records a webhook event id and reports whether this
// delivery is the first one. Duplicate deliveries return false and must not
// re-apply the grant.
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stripe_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING;
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
