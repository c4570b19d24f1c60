package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/google/uuid"
)

const Collection = "users"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidRole     = errors.New("role must be user or admin")
)

// UpdateParams carries the mutable profile fields. Nil means unchanged.
type UpdateParams struct {
	DisplayName *string
	Business    *BusinessInfo
}

type Service struct {
	store docstore.Store

	// bootstrapAdmins are emails that synthesize with the admin role on
	// first sign-in. Operator configuration, not self-service.
	bootstrapAdmins map[string]bool
}

func NewService(store docstore.Store, adminEmails string) *Service {
	bootstrap := make(map[string]bool)
	for _, e := range strings.Split(adminEmails, ",") {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			bootstrap[e] = true
		}
	}
	return &Service{store: store, bootstrapAdmins: bootstrap}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	doc, err := s.store.Get(ctx, Collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return fromDoc(doc)
}

// Create persists a profile. When a record already exists (the concurrent
// default synthesis on first sign-in can win the race) it is overwritten with
// the richer caller-supplied document.
func (s *Service) Create(ctx context.Context, p *Profile) error {
	err := s.store.Create(ctx, Collection, p.ID.String(), toDoc(p))
	if errors.Is(err, docstore.ErrExists) {
		err = s.store.Update(ctx, Collection, p.ID.String(), toDoc(p))
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Profile, error) {
	patch := docstore.Document{"updatedAt": docstore.Now()}
	if params.DisplayName != nil {
		patch["displayName"] = *params.DisplayName
	}
	if params.Business != nil {
		patch["businessName"] = params.Business.Name
		patch["businessType"] = params.Business.Type
	}

	if err := s.store.Update(ctx, Collection, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Get(ctx, id)
}

// SetRole changes a profile's role. Callers must gate this behind the admin
// guard; the service itself does not re-check the actor.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role Role) (*Profile, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, ErrInvalidRole
	}
	patch := docstore.Document{
		"role":      string(role),
		"updatedAt": docstore.Now(),
	}
	if err := s.store.Update(ctx, Collection, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return s.Get(ctx, id)
}

// List returns all profiles sorted by creation time descending.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	docs, err := s.store.Query(ctx, Collection, nil, &docstore.Order{Field: "createdAt", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	out := make([]*Profile, 0, len(docs))
	for _, doc := range docs {
		p, err := fromDoc(doc)
		if err != nil {
			slog.Warn("skipping malformed profile document", "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Resolve maps an identity to its profile, synthesizing a default when
// missing. The two failure modes are deliberately asymmetric:
//
//   - profile absent: persist the synthesized default, then return it
//     (first sign-in provisioning);
//   - profile read failed: return the synthesized default WITHOUT persisting,
//     so a transient read error can never overwrite a real stored record.
//
// Resolve never returns a nil profile together with a nil error.
func (s *Service) Resolve(ctx context.Context, ident *identity.Identity) (*Profile, error) {
	p, err := s.Get(ctx, ident.ID)
	if err == nil {
		return p, nil
	}

	def := s.defaultProfile(ident)

	if errors.Is(err, ErrProfileNotFound) {
		if cerr := s.store.Create(ctx, Collection, def.ID.String(), toDoc(def)); errors.Is(cerr, docstore.ErrExists) {
			// Lost the provisioning race; the stored record wins.
			if stored, gerr := s.Get(ctx, ident.ID); gerr == nil {
				return stored, nil
			}
			return def, nil
		} else if cerr != nil {
			// A write failure must not block sign-in; publish the
			// in-memory default and leave a trace for the operator.
			slog.Error("failed to persist default profile", "user_id", ident.ID, "error", cerr)
		} else {
			slog.Info("created missing profile", "user_id", ident.ID)
		}
		return def, nil
	}

	slog.Warn("profile read failed, using in-memory default", "user_id", ident.ID, "error", err)
	return def, nil
}

func (s *Service) defaultProfile(ident *identity.Identity) *Profile {
	role := RoleUser
	if s.bootstrapAdmins[strings.ToLower(ident.Email)] {
		role = RoleAdmin
	}
	now := time.Now()
	return &Profile{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
