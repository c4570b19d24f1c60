package directory

import (
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/google/uuid"
)

// Collection names in the document store.
const (
	CollectionShops      = "shops"
	CollectionOffers     = "offers"
	CollectionCategories = "categories"
	CollectionFloors     = "floors"
)

type Shop struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	Category    string    `json:"category"`
	Floor       string    `json:"floor,omitempty"`
	Rating      float64   `json:"rating"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Offer struct {
	ID                 uuid.UUID `json:"id"`
	ShopID             uuid.UUID `json:"shop_id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	DiscountPercentage float64   `json:"discount_percentage,omitempty"`
	OriginalPrice      float64   `json:"original_price,omitempty"`
	DiscountedPrice    float64   `json:"discounted_price,omitempty"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidTo            time.Time `json:"valid_to"`
	Category           string    `json:"category"`
	Image              string    `json:"image,omitempty"`
	IsActive           bool      `json:"is_active"`
	Terms              string    `json:"terms,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Active reports whether the offer is usable at the given instant. This is
// derived per read, never stored.
func (o *Offer) Active(now time.Time) bool {
	return o.IsActive && !o.ValidTo.Before(now)
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Floor struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stats are owner dashboard aggregates, recomputed on every call.
type Stats struct {
	TotalShops   int `json:"total_shops"`
	TotalOffers  int `json:"total_offers"`
	ActiveOffers int `json:"active_offers"`
}

func shopToDoc(s *Shop) docstore.Document {
	return docstore.Document{
		"ownerId":     s.OwnerID.String(),
		"name":        s.Name,
		"address":     s.Address,
		"category":    s.Category,
		"floor":       s.Floor,
		"rating":      s.Rating,
		"phone":       s.Phone,
		"website":     s.Website,
		"description": s.Description,
		"image":       s.Image,
		"createdAt":   docstore.FormatTime(s.CreatedAt),
		"updatedAt":   docstore.FormatTime(s.UpdatedAt),
	}
}

func shopFromDoc(doc docstore.Document) (*Shop, error) {
	id, err := uuid.Parse(str(doc["id"]))
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(str(doc["ownerId"]))
	if err != nil {
		return nil, err
	}
	return &Shop{
		ID:          id,
		OwnerID:     ownerID,
		Name:        str(doc["name"]),
		Address:     str(doc["address"]),
		Category:    str(doc["category"]),
		Floor:       str(doc["floor"]),
		Rating:      num(doc["rating"]),
		Phone:       str(doc["phone"]),
		Website:     str(doc["website"]),
		Description: str(doc["description"]),
		Image:       str(doc["image"]),
		CreatedAt:   docstore.ParseTime(doc["createdAt"]),
		UpdatedAt:   docstore.ParseTime(doc["updatedAt"]),
	}, nil
}

func offerToDoc(o *Offer) docstore.Document {
	return docstore.Document{
		"shopId":             o.ShopID.String(),
		"ownerId":            o.OwnerID.String(),
		"title":              o.Title,
		"description":        o.Description,
		"discountPercentage": o.DiscountPercentage,
		"originalPrice":      o.OriginalPrice,
		"discountedPrice":    o.DiscountedPrice,
		"validFrom":          docstore.FormatTime(o.ValidFrom),
		"validTo":            docstore.FormatTime(o.ValidTo),
		"category":           o.Category,
		"image":              o.Image,
		"isActive":           o.IsActive,
		"terms":              o.Terms,
		"createdAt":          docstore.FormatTime(o.CreatedAt),
		"updatedAt":          docstore.FormatTime(o.UpdatedAt),
	}
}

func offerFromDoc(doc docstore.Document) (*Offer, error) {
	id, err := uuid.Parse(str(doc["id"]))
	if err != nil {
		return nil, err
	}
	shopID, err := uuid.Parse(str(doc["shopId"]))
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(str(doc["ownerId"]))
	if err != nil {
		return nil, err
	}
	active, _ := doc["isActive"].(bool)
	return &Offer{
		ID:                 id,
		ShopID:             shopID,
		OwnerID:            ownerID,
		Title:              str(doc["title"]),
		Description:        str(doc["description"]),
		DiscountPercentage: num(doc["discountPercentage"]),
		OriginalPrice:      num(doc["originalPrice"]),
		DiscountedPrice:    num(doc["discountedPrice"]),
		ValidFrom:          docstore.ParseTime(doc["validFrom"]),
		ValidTo:            docstore.ParseTime(doc["validTo"]),
		Category:           str(doc["category"]),
		Image:              str(doc["image"]),
		IsActive:           active,
		Terms:              str(doc["terms"]),
		CreatedAt:          docstore.ParseTime(doc["createdAt"]),
		UpdatedAt:          docstore.ParseTime(doc["updatedAt"]),
	}, nil
}

func categoryToDoc(c *Category) docstore.Document {
	return docstore.Document{
		"name":        c.Name,
		"icon":        c.Icon,
		"description": c.Description,
		"createdAt":   docstore.FormatTime(c.CreatedAt),
		"updatedAt":   docstore.FormatTime(c.UpdatedAt),
	}
}

func categoryFromDoc(doc docstore.Document) (*Category, error) {
	id, err := uuid.Parse(str(doc["id"]))
	if err != nil {
		return nil, err
	}
	return &Category{
		ID:          id,
		Name:        str(doc["name"]),
		Icon:        str(doc["icon"]),
		Description: str(doc["description"]),
		CreatedAt:   docstore.ParseTime(doc["createdAt"]),
		UpdatedAt:   docstore.ParseTime(doc["updatedAt"]),
	}, nil
}

func floorToDoc(f *Floor) docstore.Document {
	return docstore.Document{
		"name":        f.Name,
		"description": f.Description,
		"order":       f.Order,
		"createdAt":   docstore.FormatTime(f.CreatedAt),
		"updatedAt":   docstore.FormatTime(f.UpdatedAt),
	}
}

func floorFromDoc(doc docstore.Document) (*Floor, error) {
	id, err := uuid.Parse(str(doc["id"]))
	if err != nil {
		return nil, err
	}
	return &Floor{
		ID:          id,
		Name:        str(doc["name"]),
		Description: str(doc["description"]),
		Order:       int(num(doc["order"])),
		CreatedAt:   docstore.ParseTime(doc["createdAt"]),
		UpdatedAt:   docstore.ParseTime(doc["updatedAt"]),
	}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
