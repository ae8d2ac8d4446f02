package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// masked replaces secrets whenever a request is logged or serialized.
const masked = "***"

type Login struct {
	Email    string `validate:"required,email" json:"email"`
	Password string `validate:"required"       json:"password"`
}

func (l Login) redacted() Login {
	l.Password = masked
	return l
}

func (l Login) MarshalZerologObject(e *zerolog.Event) {
	safe := l.redacted()
	e.Str("email", safe.Email).Str("password", safe.Password)
}

func (l Login) MarshalJSON() ([]byte, error) {
	type plain Login
	return json.Marshal(plain(l.redacted()))
}
