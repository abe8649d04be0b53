package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"Zenith/localstore"
	"Zenith/logger"
	"Zenith/model"
	"Zenith/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

const minPasswordLen = 6

// TokenStore keeps the session token between runs.
type TokenStore interface {
	GetJSON(key string, v interface{}) bool
	PutJSON(key string, v interface{}) error
	Delete(key string) error
}

type savedSession struct {
	Token string `json:"token"`
}

// Provider signs listeners in against the users table and remembers the session locally.
type Provider struct {
	users  repository.UserRepository
	tokens TokenStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	current   *model.User
	listeners []func(*model.User)
}

// NewProvider creates a Provider. tokens may be nil, the session then lasts for the process only.
func NewProvider(users repository.UserRepository, tokens TokenStore, secret string, ttl time.Duration) *Provider {
	return &Provider{
		users:  users,
		tokens: tokens,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// CurrentUser returns the signed-in user or nil.
func (p *Provider) CurrentUser() *model.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// OnChange registers fn for sign-in and sign-out. fn receives nil on sign-out.
func (p *Provider) OnChange(fn func(*model.User)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Provider) setCurrent(u *model.User) {
	p.mu.Lock()
	p.current = u
	listeners := append([]func(*model.User){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(u)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SignUp creates an account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	existing, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
	}
	if err := p.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("用户注册成功", logger.String("user", user.ID))
	return user, p.startSession(user)
}

// SignIn checks the credentials and starts a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := p.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("登录失败", logger.String("email", email))
		return nil, ErrInvalidCredentials
	}
	return user, p.startSession(user)
}

func (p *Provider) startSession(user *model.User) error {
	token, err := IssueToken(p.secret, user, p.ttl, p.now())
	if err != nil {
		return err
	}
	if p.tokens != nil {
		if err := p.tokens.PutJSON(localstore.AuthKey, savedSession{Token: token}); err != nil {
			// signed in for this run only
			logger.Warn("保存登录状态失败", logger.ErrorField(err))
		}
	}
	p.setCurrent(user)
	return nil
}

// SignOut forgets the session.
func (p *Provider) SignOut() {
	if p.tokens != nil {
		if err := p.tokens.Delete(localstore.AuthKey); err != nil {
			logger.Warn("清除登录状态失败", logger.ErrorField(err))
		}
	}
	p.setCurrent(nil)
}

// Restore resumes a saved session. It returns nil, nil when there is none
// or the saved token is no longer valid.
func (p *Provider) Restore(ctx context.Context) (*model.User, error) {
	if p.tokens == nil {
		return nil, nil
	}
	var saved savedSession
	if !p.tokens.GetJSON(localstore.AuthKey, &saved) || saved.Token == "" {
		return nil, nil
	}
	claims, err := ParseToken(p.secret, saved.Token, p.now())
	if err != nil {
		logger.Info("saved session dropped", logger.ErrorField(err))
		p.SignOut()
		return nil, nil
	}
	user, err := p.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if user == nil {
		p.SignOut()
		return nil, nil
	}
	p.setCurrent(user)
	return user, nil
}

// UpdateDisplayName renames the signed-in user.
func (p *Provider) UpdateDisplayName(ctx context.Context, name string) error {
	user := p.CurrentUser()
	if user == nil {
		return ErrInvalidCredentials
	}
	name = strings.TrimSpace(name)
	if err := p.users.UpdateDisplayName(ctx, user.ID, name); err != nil {
		return err
	}
	updated := *user
	updated.DisplayName = name
	p.setCurrent(&updated)
	return nil
}
