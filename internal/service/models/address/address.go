package address

import "strings"

// Address is a postal address snapshot copied onto an order at checkout time.
type Address struct {
	FirstName   string `json:"first_name"          validate:"required"`
	LastName    string `json:"last_name"           validate:"required"`
	Address1    string `json:"address_1"           validate:"required"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city"                validate:"required"`
	PostalCode  string `json:"postal_code"         validate:"required"`
	CountryCode string `json:"country_code"        validate:"required,len=2,alpha"`
	Phone       string `json:"phone,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed and the country code lower-cased.
func (a Address) Normalized() Address {
	return Address{
		FirstName:   strings.TrimSpace(a.FirstName),
		LastName:    strings.TrimSpace(a.LastName),
		Address1:    strings.TrimSpace(a.Address1),
		Address2:    strings.TrimSpace(a.Address2),
		City:        strings.TrimSpace(a.City),
		PostalCode:  strings.TrimSpace(a.PostalCode),
		CountryCode: strings.ToLower(strings.TrimSpace(a.CountryCode)),
		Phone:       strings.TrimSpace(a.Phone),
	}
}

// FullName joins first and last name.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
