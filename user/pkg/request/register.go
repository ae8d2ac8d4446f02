package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

type Register struct {
	Name        string `validate:"required,alphanum,min=3,max=30" json:"name"`
	Email       string `validate:"required,email"                 json:"email"`
	Password    string `validate:"required,min=5"                 json:"password"`
	Address     string `validate:"required"                       json:"address"`
	PhoneNumber string `validate:"required,phone"                 json:"phone_number"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("name", r.Name).
		Str("email", r.Email).
		Str("password", masked).
		Str("address", r.Address).
		Str("phone_number", r.PhoneNumber)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = masked
	type plain Register
	return json.Marshal(plain(r))
}

// UpdateUser replaces every field of the account, the password included.
type UpdateUser Register

func (u UpdateUser) MarshalZerologObject(e *zerolog.Event) {
	Register(u).MarshalZerologObject(e)
}

func (u UpdateUser) MarshalJSON() ([]byte, error) {
	return Register(u).MarshalJSON()
}
