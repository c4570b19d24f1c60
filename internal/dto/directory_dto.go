package dto

import "time"

type ShopRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Category    string `json:"category"`
	Floor       string `json:"floor"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type ShopUpdateRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Category    *string `json:"category"`
	Floor       *string `json:"floor"`
	Phone       *string `json:"phone"`
	Website     *string `json:"website"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

type OfferRequest struct {
	ShopID             string    `json:"shop_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	DiscountPercentage float64   `json:"discount_percentage"`
	OriginalPrice      float64   `json:"original_price"`
	DiscountedPrice    float64   `json:"discounted_price"`
	ValidFrom          time.Time `json:"valid_from"`
	ValidTo            time.Time `json:"valid_to"`
	Category           string    `json:"category"`
	Image              string    `json:"image"`
	IsActive           bool      `json:"is_active"`
	Terms              string    `json:"terms"`
}

type OfferUpdateRequest struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	DiscountPercentage *float64   `json:"discount_percentage"`
	OriginalPrice      *float64   `json:"original_price"`
	DiscountedPrice    *float64   `json:"discounted_price"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidTo            *time.Time `json:"valid_to"`
	Category           *string    `json:"category"`
	Image              *string    `json:"image"`
	IsActive           *bool      `json:"is_active"`
	Terms              *string    `json:"terms"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

type FloorRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}
