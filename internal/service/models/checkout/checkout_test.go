package checkout

import (
	"testing"

	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		Email: "bride@example.com",
		Items: []CartLine{
			{ProductID: "prod", Title: "Aurelia gown", Quantity: 1, Price: 150000},
		},
		ShippingAddress: address.Address{
			FirstName:   "Ana",
			LastName:    "Kovač",
			Address1:    "Rruga 1",
			City:        "Prishtina",
			PostalCode:  "10000",
			CountryCode: "XK",
		},
		ShippingOptionID: "standard",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Submission)
		want   error
	}{
		{"valid", func(s *Submission) {}, nil},
		{"missing email", func(s *Submission) { s.Email = "" }, ErrMissingFields},
		{"empty cart", func(s *Submission) { s.Items = nil }, ErrMissingFields},
		{"email without domain", func(s *Submission) { s.Email = "bride@" }, ErrInvalidEmail},
		{"email without tld", func(s *Submission) { s.Email = "bride@example" }, ErrInvalidEmail},
		{"email with space", func(s *Submission) { s.Email = "bri de@example.com" }, ErrInvalidEmail},
		{"missing city", func(s *Submission) { s.ShippingAddress.City = "" }, ErrIncompleteAddress},
		{"missing last name", func(s *Submission) { s.ShippingAddress.LastName = "  " }, ErrIncompleteAddress},
		{"free text country", func(s *Submission) { s.ShippingAddress.CountryCode = "Kosovo" }, ErrIncompleteAddress},
		{"numeric country", func(s *Submission) { s.ShippingAddress.CountryCode = "12" }, ErrIncompleteAddress},
		{"zero quantity", func(s *Submission) { s.Items[0].Quantity = 0 }, ErrInvalidCartLine},
		{"negative price", func(s *Submission) { s.Items[0].Price = -1 }, ErrInvalidCartLine},
		{"negative shipping", func(s *Submission) { s.ShippingCost = -500 }, ErrInvalidCartLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)
			s.Normalize()

			err := s.Validate()
			if tt.want == nil {
				require.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNormalize(t *testing.T) {
	s := validSubmission()
	s.Email = "  Bride@Example.COM "
	s.ShippingAddress.CountryCode = " XK"

	s.Normalize()

	assert.Equal(t, "bride@example.com", s.Email)
	assert.Equal(t, "xk", s.ShippingAddress.CountryCode)
}

func TestSubtitle(t *testing.T) {
	assert.Equal(t, "38 / Ivory", CartLine{Size: "38", Color: "Ivory"}.Subtitle())
	assert.Equal(t, "Ivory", CartLine{Color: "Ivory"}.Subtitle())
	assert.Equal(t, "", CartLine{}.Subtitle())
}
