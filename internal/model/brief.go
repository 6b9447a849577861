package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RequestType enumerates the design request categories the portal
// accepts.  Each type carries its own brief shape; the pairing is
// enforced in Brief's JSON (un)marshalling so that an unknown category
// or a mismatched payload is rejected at bind time instead of being
// stored as an opaque blob.
type RequestType string

const (
	TypeBrand   RequestType = "brand"
	TypeWebsite RequestType = "website"
	TypeProduct RequestType = "product"
)

// ValidRequestType reports whether t names a known category.
func ValidRequestType(t RequestType) bool {
	switch t {
	case TypeBrand, TypeWebsite, TypeProduct:
		return true
	}
	return false
}

// ErrUnknownRequestType is returned when a brief carries a category
// outside the fixed set.
var ErrUnknownRequestType = errors.New("unknown request type")

// BrandBrief holds the fields of a brand identity request.
type BrandBrief struct {
	BusinessName string `json:"business_name"`
	Industry     string `json:"industry"`
	Audience     string `json:"audience"`
	StyleWords   string `json:"style_words"`
	ColorLikes   string `json:"color_likes"`
	Notes        string `json:"notes,omitempty"`
}

// WebsiteBrief holds the fields of a website design request.
type WebsiteBrief struct {
	Purpose     string   `json:"purpose"`
	Pages       []string `json:"pages"`
	HasBranding bool     `json:"has_branding"`
	References  string   `json:"references,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// ProductBrief holds the fields of a product/packaging design request.
type ProductBrief struct {
	ProductName string `json:"product_name"`
	Dimensions  string `json:"dimensions"`
	Materials   string `json:"materials"`
	Packaging   string `json:"packaging"`
	Notes       string `json:"notes,omitempty"`
}

// Brief is a tagged union over the per-category brief shapes.  Exactly
// one of the pointer fields is non-nil and it must agree with Type.
// On the wire and in the requests.payload column it is encoded as
// {"type": "...", "<type>": {...}}.
type Brief struct {
	Type    RequestType
	Brand   *BrandBrief
	Website *WebsiteBrief
	Product *ProductBrief
}

// briefEnvelope is the wire/storage form of Brief.
type briefEnvelope struct {
	Type    RequestType   `json:"type"`
	Brand   *BrandBrief   `json:"brand,omitempty"`
	Website *WebsiteBrief `json:"website,omitempty"`
	Product *ProductBrief `json:"product,omitempty"`
}

// Validate checks that the union is well-formed: a known type with the
// matching variant populated and the others empty.
func (b Brief) Validate() error {
	switch b.Type {
	case TypeBrand:
		if b.Brand == nil || b.Website != nil || b.Product != nil {
			return fmt.Errorf("brief type %q requires exactly the brand payload", b.Type)
		}
	case TypeWebsite:
		if b.Website == nil || b.Brand != nil || b.Product != nil {
			return fmt.Errorf("brief type %q requires exactly the website payload", b.Type)
		}
	case TypeProduct:
		if b.Product == nil || b.Brand != nil || b.Website != nil {
			return fmt.Errorf("brief type %q requires exactly the product payload", b.Type)
		}
	default:
		return ErrUnknownRequestType
	}
	return nil
}

// MarshalJSON encodes the brief in envelope form after validating it.
func (b Brief) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(briefEnvelope{
		Type:    b.Type,
		Brand:   b.Brand,
		Website: b.Website,
		Product: b.Product,
	})
}

// UnmarshalJSON decodes the envelope form and rejects unknown or
// mismatched categories.
func (b *Brief) UnmarshalJSON(data []byte) error {
	var env briefEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	out := Brief{Type: env.Type, Brand: env.Brand, Website: env.Website, Product: env.Product}
	if err := out.Validate(); err != nil {
		return err
	}
	*b = out
	return nil
}
