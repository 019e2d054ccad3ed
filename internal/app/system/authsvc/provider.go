// internal/app/system/authsvc/provider.go
package authsvc

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tewell/reelhub/internal/app/system/authutil"
	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// authSession is the persisted signed-in state of one logical session.
type authSession struct {
	ID        string    `bson:"_id"` // opaque session id from the cookie layer
	UID       string    `bson:"uid"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"created_at"`
}

// Provider is the production Service: accounts and session state live in
// Mongo, state-change callbacks are delivered in-process. Single-node
// deployment is assumed; a second node would not see this node's
// notifications.
type Provider struct {
	accounts *mongo.Collection
	sessions *mongo.Collection
	log      *zap.Logger

	mu   sync.Mutex
	subs map[string]map[int]func(*models.Principal) // session id → token → callback
	next int
}

// NewProvider creates a Provider over the accounts and auth_sessions
// collections.
func NewProvider(db *mongo.Database, logger *zap.Logger) *Provider {
	return &Provider{
		accounts: db.Collection("accounts"),
		sessions: db.Collection("auth_sessions"),
		log:      logger,
		subs:     make(map[string]map[int]func(*models.Principal)),
	}
}

// EnsureIndexes creates the account and session indexes. Idempotent.
func (p *Provider) EnsureIndexes(ctx context.Context) error {
	_, err := p.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_accounts_email_ci"),
	})
	if err != nil {
		return err
	}
	_, err = p.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uid", Value: 1}},
		Options: options.Index().SetName("idx_auth_sessions_uid"),
	})
	return err
}

func (p *Provider) SignIn(ctx context.Context, sessionID, email, password string) (models.Principal, error) {
	email = normalize.Email(email)

	var acct models.Account
	err := p.accounts.FindOne(ctx, bson.M{"email_ci": email}).Decode(&acct)
	switch {
	case err == mongo.ErrNoDocuments:
		// Same code for unknown email and bad password, so callers cannot
		// probe which emails exist.
		return models.Principal{}, NewError(CodeInvalidCredential, errors.New("no account for email"))
	case err != nil:
		return models.Principal{}, NewError(CodeInternal, err)
	}

	if acct.PasswordHash == nil || !authutil.CheckPassword(password, *acct.PasswordHash) {
		return models.Principal{}, NewError(CodeInvalidCredential, errors.New("password mismatch"))
	}
	if acct.Disabled {
		return models.Principal{}, NewError(CodeUserDisabled, errors.New("account disabled"))
	}

	pr := models.Principal{UID: acct.UID, Email: acct.Email}
	if err := p.establish(ctx, sessionID, pr); err != nil {
		return models.Principal{}, err
	}
	return pr, nil
}

func (p *Provider) SignUp(ctx context.Context, sessionID, email, password string) (models.Principal, error) {
	email = normalize.Email(email)
	if !validEmail(email) {
		return models.Principal{}, NewError(CodeInvalidEmail, errors.New("malformed email"))
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return models.Principal{}, NewError(CodeWeakPassword, err)
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return models.Principal{}, NewError(CodeInternal, err)
	}

	now := time.Now().UTC()
	acct := models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		EmailCI:      email,
		PasswordHash: &hash,
		AuthMethod:   models.AuthMethodPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := p.accounts.InsertOne(ctx, acct); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Principal{}, NewError(CodeEmailInUse, err)
		}
		return models.Principal{}, NewError(CodeInternal, err)
	}
	p.log.Info("account created",
		zap.String("uid", acct.UID),
		zap.String("auth_method", acct.AuthMethod))

	pr := models.Principal{UID: acct.UID, Email: acct.Email}
	if err := p.establish(ctx, sessionID, pr); err != nil {
		return models.Principal{}, err
	}
	return pr, nil
}

func (p *Provider) SignInExternal(ctx context.Context, sessionID, email, provider string) (models.Principal, error) {
	email = normalize.Email(email)
	if !validEmail(email) {
		return models.Principal{}, NewError(CodeInvalidEmail, errors.New("malformed email"))
	}

	var acct models.Account
	err := p.accounts.FindOne(ctx, bson.M{"email_ci": email}).Decode(&acct)
	switch {
	case err == mongo.ErrNoDocuments:
		// First federated sign-in creates the account.
		now := time.Now().UTC()
		acct = models.Account{
			UID:        uuid.NewString(),
			Email:      email,
			EmailCI:    email,
			AuthMethod: provider,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := p.accounts.InsertOne(ctx, acct); err != nil {
			if wafflemongo.IsDup(err) {
				// Lost a race with a concurrent first sign-in; reload.
				if err := p.accounts.FindOne(ctx, bson.M{"email_ci": email}).Decode(&acct); err != nil {
					return models.Principal{}, NewError(CodeInternal, err)
				}
			} else {
				return models.Principal{}, NewError(CodeInternal, err)
			}
		} else {
			p.log.Info("account created",
				zap.String("uid", acct.UID),
				zap.String("auth_method", provider))
		}
	case err != nil:
		return models.Principal{}, NewError(CodeInternal, err)
	}

	if acct.Disabled {
		return models.Principal{}, NewError(CodeUserDisabled, errors.New("account disabled"))
	}

	pr := models.Principal{UID: acct.UID, Email: acct.Email}
	if err := p.establish(ctx, sessionID, pr); err != nil {
		return models.Principal{}, err
	}
	return pr, nil
}

func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if _, err := p.sessions.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return NewError(CodeInternal, err)
	}
	p.publish(sessionID, nil)
	return nil
}

// DisableAccount marks an account disabled and signs out every session that
// is currently signed in as it. This is the one spontaneously-firing event
// subscribers can observe without any action of their own.
func (p *Provider) DisableAccount(ctx context.Context, uid string) error {
	_, err := p.accounts.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{"disabled": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return NewError(CodeInternal, err)
	}

	cur, err := p.sessions.Find(ctx, bson.M{"uid": uid})
	if err != nil {
		return NewError(CodeInternal, err)
	}
	defer cur.Close(ctx)

	var sess []authSession
	if err := cur.All(ctx, &sess); err != nil {
		return NewError(CodeInternal, err)
	}
	for _, s := range sess {
		if _, err := p.sessions.DeleteOne(ctx, bson.M{"_id": s.ID}); err != nil {
			p.log.Warn("disable: session delete failed",
				zap.String("session_id", s.ID), zap.Error(err))
			continue
		}
		p.publish(s.ID, nil)
	}
	return nil
}

// Current returns the session's signed-in principal, or nil when signed out.
func (p *Provider) Current(ctx context.Context, sessionID string) (*models.Principal, error) {
	var s authSession
	err := p.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Principal{UID: s.UID, Email: s.Email}, nil
}

func (p *Provider) OnStateChange(ctx context.Context, sessionID string, fn func(*models.Principal)) CancelFunc {
	p.mu.Lock()
	token := p.next
	p.next++
	if p.subs[sessionID] == nil {
		p.subs[sessionID] = make(map[int]func(*models.Principal))
	}
	p.subs[sessionID][token] = fn
	p.mu.Unlock()

	// Immediate first fire with the current state. A failed lookup degrades
	// to signed-out rather than leaving the subscriber uninitialized.
	cur, err := p.Current(ctx, sessionID)
	if err != nil {
		p.log.Warn("auth-state: current lookup failed, reporting signed out",
			zap.String("session_id", sessionID), zap.Error(err))
		cur = nil
	}
	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs[sessionID], token)
			if len(p.subs[sessionID]) == 0 {
				delete(p.subs, sessionID)
			}
		})
	}
}

// establish records the session's signed-in principal and notifies
// subscribers.
func (p *Provider) establish(ctx context.Context, sessionID string, pr models.Principal) error {
	_, err := p.sessions.ReplaceOne(ctx,
		bson.M{"_id": sessionID},
		authSession{ID: sessionID, UID: pr.UID, Email: pr.Email, CreatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return NewError(CodeInternal, err)
	}
	p.publish(sessionID, &pr)
	return nil
}

// publish calls every subscriber of the session outside the lock.
func (p *Provider) publish(sessionID string, pr *models.Principal) {
	p.mu.Lock()
	fns := make([]func(*models.Principal), 0, len(p.subs[sessionID]))
	for _, fn := range p.subs[sessionID] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(pr)
	}
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
