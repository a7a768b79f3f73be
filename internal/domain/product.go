package domain

import (
	"bytes"
	"encoding/json"
)

// PlaceholderImage is shown when a product has no usable image.
const PlaceholderImage = "https://via.placeholder.com/300"

type Product struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Amount `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category,omitempty"`
	Stock       int    `json:"stock"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductInput is the admin payload for creating or updating a product.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
}

// ProductRef is the productId field of a cart item. The backend sends either
// the bare id or the populated product document.
type ProductRef struct {
	ID        string
	Name      string
	Image     string
	Populated bool
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	if !r.Populated {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID    string `json:"_id"`
		Name  string `json:"name,omitempty"`
		Image string `json:"image,omitempty"`
	}{r.ID, r.Name, r.Image})
}

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = ProductRef{}
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	case data[0] == '{':
		var p struct {
			ID    string `json:"_id"`
			Name  string `json:"name"`
			Image string `json:"image"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		r.ID, r.Name, r.Image, r.Populated = p.ID, p.Name, p.Image, true
		return nil
	default:
		return nil
	}
}
