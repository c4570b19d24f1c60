package profiles

import (
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// BusinessInfo is the optional business affiliation. A profile with a non-nil
// BusinessInfo (and a non-admin role) is a business owner.
type BusinessInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // retail, food, service, other
}

// Profile is the application-level record keyed 1:1 by identity id.
type Profile struct {
	ID          uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name"`
	Role        Role          `json:"role"`
	Business    *BusinessInfo `json:"business,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// IsBusinessOwner reports whether the profile is a non-admin business owner.
// Administrators are excluded; they use the admin surface instead.
func (p *Profile) IsBusinessOwner() bool {
	return p.Business != nil && p.Role != RoleAdmin
}

func toDoc(p *Profile) docstore.Document {
	doc := docstore.Document{
		"email":       p.Email,
		"displayName": p.DisplayName,
		"role":        string(p.Role),
		"createdAt":   docstore.FormatTime(p.CreatedAt),
		"updatedAt":   docstore.FormatTime(p.UpdatedAt),
	}
	if p.Business != nil {
		doc["businessName"] = p.Business.Name
		doc["businessType"] = p.Business.Type
	}
	return doc
}

func fromDoc(doc docstore.Document) (*Profile, error) {
	id, err := uuid.Parse(str(doc["id"]))
	if err != nil {
		return nil, err
	}
	p := &Profile{
		ID:          id,
		Email:       str(doc["email"]),
		DisplayName: str(doc["displayName"]),
		Role:        Role(str(doc["role"])),
		CreatedAt:   docstore.ParseTime(doc["createdAt"]),
		UpdatedAt:   docstore.ParseTime(doc["updatedAt"]),
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	name := str(doc["businessName"])
	btype := str(doc["businessType"])
	if name != "" && btype != "" {
		p.Business = &BusinessInfo{Name: name, Type: btype}
	}
	return p, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
