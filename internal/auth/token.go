package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func IssueToken(
	c context.Context,
	secretKey string,
	ttl time.Duration,
	userID uuid.UUID,
	email string,
) (string, Identity, error) {
	c, span := otel.Tracer.Start(c, "IssueToken")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "IssueToken").
		Str(log.KeyUserID, userID.String()).
		Logger()

	now := time.Now()
	identity := Identity{
		UserID:    userID,
		Email:     email,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}

	logger = logger.With().
		Str(log.KeyProcess, "signing token").
		Str(log.KeyTokenID, identity.TokenID).
		Logger()
	logger.Trace().Msg("signing token")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.AppUserService,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{constants.AudienceUser},
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        identity.TokenID,
		},
	}).SignedString([]byte(secretKey))
	if err != nil {
		err = fmt.Errorf("failed signing token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", Identity{}, err
	}
	logger.Info().Msg("signed token")

	return token, identity, nil
}

func VerifyToken(c context.Context, secretKey string, token string) (Identity, error) {
	c, span := otel.Tracer.Start(c, "VerifyToken")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "VerifyToken").Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing claims").Logger()
	logger.Trace().Msg("parsing claims")
	parsed := claims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		&parsed,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
		jwt.WithAudience(constants.AudienceUser),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(constants.AppUserService),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing claims with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Identity{}, err
	}
	if !jwtToken.Valid {
		err = fmt.Errorf("failed validating token with error=%w", inErrors.ErrTokenInvalid)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Identity{}, err
	}
	logger.Trace().Msg("parsed claims")

	logger = logger.With().Str(log.KeyProcess, "parsing subject").Logger()
	logger.Trace().Msg("parsing subject")
	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		err = fmt.Errorf("failed parsing subject=%s with error=%w", parsed.Subject, inErrors.ErrEmptySubject)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Identity{}, err
	}
	logger = logger.With().Str(log.KeyUserID, userID.String()).Logger()
	logger.Trace().Msg("parsed subject")

	identity := Identity{UserID: userID, Email: parsed.Email, TokenID: parsed.ID}
	if parsed.ExpiresAt != nil {
		identity.ExpiresAt = parsed.ExpiresAt.Time
	}
	return identity, nil
}
