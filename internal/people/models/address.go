package models

import (
	"strings"

	"mugs/pkg/document"
)

const ModelAddress = "Address"

// AddressUpdateFields is the update allowlist for addresses.
var AddressUpdateFields = []string{"addressLine1", "addressLine2", "city", "country"}

const (
	DefaultAddressLine1 = "Enter Address"
	DefaultCity         = "Rusape"
	DefaultCountry      = "Zimbabwe"
)

type Address struct {
	document.Base `bson:",inline"`

	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city" json:"city"`
	Country      string `bson:"country" json:"country"`
	Owners       Owners `bson:"owners" json:"owners"`
}

func (a *Address) OwnerSet() *Owners { return &a.Owners }

// Normalize trims the lines and fills the defaults for missing ones.
func (a *Address) Normalize() {
	a.AddressLine1 = orDefault(a.AddressLine1, DefaultAddressLine1)
	a.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	a.City = orDefault(a.City, DefaultCity)
	a.Country = orDefault(a.Country, DefaultCountry)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
