package request

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/validate"
)

func TestLoginRequest(t *testing.T) {
	expectedMap := map[string]string{"email": "email", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := Login{Email: "email", Password: "password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "password", loginReq.Password)
}

func TestRegisterMasksPassword(t *testing.T) {
	register := Register{
		Name:        "alice1",
		Email:       "a@x.com",
		Password:    "secret",
		Address:     "1 Main St",
		PhoneNumber: "555-1234",
	}

	raw, err := json.Marshal(register)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	raw, err = json.Marshal(UpdateUser(register))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	var buffer bytes.Buffer
	logger := zerolog.New(&buffer)
	logger.Info().Object("request", register).Msg("")
	assert.NotContains(t, buffer.String(), "secret")
	assert.Contains(t, buffer.String(), "alice1")
}

func TestRegisterValidation(t *testing.T) {
	valid := Register{
		Name:        "alice1",
		Email:       "a@x.com",
		Password:    "secret",
		Address:     "1 Main St",
		PhoneNumber: "555-1234",
	}
	tests := []struct {
		name    string
		mutate  func(r Register) Register
		wantErr bool
	}{
		{name: "valid", mutate: func(r Register) Register { return r }},
		{name: "name too short", mutate: func(r Register) Register { r.Name = "al"; return r }, wantErr: true},
		{name: "name not alphanumeric", mutate: func(r Register) Register { r.Name = "alice_1"; return r }, wantErr: true},
		{name: "invalid email", mutate: func(r Register) Register { r.Email = "alice"; return r }, wantErr: true},
		{name: "short password", mutate: func(r Register) Register { r.Password = "1234"; return r }, wantErr: true},
		{name: "empty address", mutate: func(r Register) Register { r.Address = ""; return r }, wantErr: true},
		{name: "invalid phone", mutate: func(r Register) Register { r.PhoneNumber = "call me"; return r }, wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate.New().Struct(test.mutate(valid))
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
