package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider is one client's view of the identity service: it tracks the
// currently signed-in identity and notifies subscribers on every change.
// Instances share an AccountStore backend; each server-side client session
// gets its own Provider.
type Provider struct {
	accounts AccountStore

	mu      sync.Mutex
	current *Identity
	subs    map[int]func(*Identity)
	nextSub int
}

func NewProvider(accounts AccountStore) *Provider {
	return &Provider{
		accounts: accounts,
		subs:     make(map[int]func(*Identity)),
	}
}

// OnChange registers a listener for sign-in state changes. The listener is
// invoked once immediately with the current state. The returned function
// cancels the subscription.
func (p *Provider) OnChange(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Current returns the currently signed-in identity, or nil.
func (p *Provider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Provider) publish(ident *Identity) {
	p.mu.Lock()
	p.current = ident
	listeners := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(ident)
	}
}

// SignIn authenticates email/password credentials. On success the provider
// publishes a change event with the signed-in identity.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return nil, &AuthError{Code: CodeInvalidEmail, Op: "sign-in"}
	}

	account, err := p.accounts.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, &AuthError{Code: CodeUserNotFound, Op: "sign-in"}
		}
		return nil, &AuthError{Code: CodeNetworkError, Op: "sign-in", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, &AuthError{Code: CodeInvalidCredential, Op: "sign-in"}
	}

	ident := identityOf(account)
	p.publish(ident)
	return ident, nil
}

// SignUp creates a new account and signs it in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return nil, &AuthError{Code: CodeInvalidEmail, Op: "sign-up"}
	}
	if len(password) < 8 {
		return nil, &AuthError{Code: CodeWeakPassword, Op: "sign-up"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &AuthError{Code: CodeNetworkError, Op: "sign-up", Err: err}
	}

	account := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, &AuthError{Code: CodeEmailInUse, Op: "sign-up"}
		}
		return nil, &AuthError{Code: CodeNetworkError, Op: "sign-up", Err: err}
	}

	ident := identityOf(account)
	p.publish(ident)
	return ident, nil
}

// SignOut clears the current identity. The local change event fires even if
// a remote teardown were to fail; callers must not block state clearing on it.
func (p *Provider) SignOut(ctx context.Context) error {
	p.publish(nil)
	return nil
}

// UpdateDisplayName is best-effort and independent of profile persistence.
func (p *Provider) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	if err := p.accounts.UpdateDisplayName(ctx, id, name); err != nil {
		return &AuthError{Code: CodeNetworkError, Op: "update-display-name", Err: err}
	}

	p.mu.Lock()
	if p.current != nil && p.current.ID == id {
		updated := *p.current
		updated.DisplayName = name
		p.current = &updated
	}
	p.mu.Unlock()
	return nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.Contains(email, " ")
}
