package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/config"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

type UserService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	limiter *auth.LoginLimiter
	config  config.Application
}

func NewUserService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	limiter *auth.LoginLimiter,
	config config.Application,
) *UserService {
	return &UserService{pool: pool, queries: queries, limiter: limiter, config: config}
}

func (u *UserService) Register(c context.Context, param request.Register) (response.Register, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "checking email").Logger()
	logger.Info().Msg("checking email")
	_, err := u.queries.FindUserByEmail(c, param.Email)
	if err == nil {
		err = fmt.Errorf("failed registering email=%s with error=%w", param.Email, inErrors.ErrEmailExists)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed checking email with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger.Info().Msg("checked email")

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Info().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", errors.Join(err, inErrors.ErrFailedHashPassword))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger.Info().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Info().Msg("beginning transaction")
	tx, err := u.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	queries := u.queries.WithTx(tx)
	logger.Info().Msg("began transaction")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := queries.InsertUser(c, repository.InsertUserParams{
		Name:        param.Name,
		Email:       param.Email,
		Password:    string(hashed),
		Address:     param.Address,
		PhoneNumber: param.PhoneNumber,
	})
	if repository.IsUniqueViolation(err) {
		err = fmt.Errorf("failed inserting user with error=%w", inErrors.ErrEmailExists)
	} else if err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	logger = logger.With().Str(log.KeyProcess, "inserting cart").Logger()
	logger.Info().Msg("inserting cart")
	cart, err := queries.InsertCart(c, user.ID)
	if err != nil {
		err = fmt.Errorf("failed inserting cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Info().Msg("inserted cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Info().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Register{}, err
	}
	logger.Info().Msg("committed transaction")

	return response.Register{User: user.Response(), CartID: cart.ID}, nil
}

func (u *UserService) Login(c context.Context, param request.Login) (response.Login, auth.Identity, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "checking login attempts").Logger()
	logger.Info().Msg("checking login attempts")
	if err := u.limiter.Allow(c, param.Email); err != nil {
		otel.RecordError(err, span)
		metrics.LoginTotal.WithLabelValues(metrics.ResultFailed).Inc()
		return response.Login{}, auth.Identity{}, err
	}
	logger.Info().Msg("checked login attempts")

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user by email")
	user, err := u.queries.FindUserByEmail(c, param.Email)
	if err == nil {
		logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
		logger.Info().Msg("verifying password")
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password))
	}
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			err = fmt.Errorf("failed finding user with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Login{}, auth.Identity{}, err
		}
		if limitErr := u.limiter.Fail(c, param.Email); limitErr != nil {
			logger.Error().Err(limitErr).Msg(limitErr.Error())
		}
		metrics.LoginTotal.WithLabelValues(metrics.ResultFailed).Inc()
		err = fmt.Errorf("failed login with error=%w", inErrors.ErrAuthenticationFailed)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, auth.Identity{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "resetting login attempts").Logger()
	if err = u.limiter.Reset(c, param.Email); err != nil {
		logger.Error().Err(err).Msg(err.Error())
	}

	logger = logger.With().Str(log.KeyProcess, "issuing token").Logger()
	logger.Info().Msg("issuing token")
	token, identity, err := auth.IssueToken(c, u.config.SecretKey, u.config.TokenTTL, user.ID, user.Email)
	if err != nil {
		otel.RecordError(err, span)
		return response.Login{}, auth.Identity{}, err
	}
	logger.Info().Str(log.KeyTokenID, identity.TokenID).Msg("issued token")
	metrics.LoginTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	return response.Login{Token: token, ExpiresAt: identity.ExpiresAt, User: user.Response()}, identity, nil
}

func (u *UserService) FindUserById(c context.Context, requester auth.Identity, userID uuid.UUID) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService FindUserById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService FindUserById").
		Str(log.KeyUserID, userID.String()).
		Logger()

	if err := auth.Authorize(requester, userID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := u.queries.FindUserById(c, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding user with error=%w", inErrors.ErrUserNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding user with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("found user")

	return user.Response(), nil
}

func (u *UserService) UpdateUser(
	c context.Context,
	requester auth.Identity,
	userID uuid.UUID,
	param request.UpdateUser,
) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService UpdateUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService UpdateUser").
		Str(log.KeyUserID, userID.String()).
		Logger()

	if err := auth.Authorize(requester, userID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Info().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", errors.Join(err, inErrors.ErrFailedHashPassword))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "updating user").Logger()
	logger.Info().Msg("updating user")
	user, err := u.queries.UpdateUser(c, repository.UpdateUserParams{
		ID:          userID,
		Name:        param.Name,
		Email:       param.Email,
		Password:    string(hashed),
		Address:     param.Address,
		PhoneNumber: param.PhoneNumber,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = fmt.Errorf("failed updating user with error=%w", inErrors.ErrUserNotFound)
	case repository.IsUniqueViolation(err):
		err = fmt.Errorf("failed updating user with error=%w", inErrors.ErrEmailExists)
	case err != nil:
		err = fmt.Errorf("failed updating user with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Msg("updated user")

	return user.Response(), nil
}

func (u *UserService) DeleteUser(c context.Context, requester auth.Identity, userID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "UserService DeleteUser")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService DeleteUser").
		Str(log.KeyUserID, userID.String()).
		Logger()

	if err := auth.Authorize(requester, userID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "deleting user").Logger()
	logger.Info().Msg("deleting user")
	deleted, err := u.queries.DeleteUser(c, userID)
	if err != nil {
		err = fmt.Errorf("failed deleting user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if deleted == 0 {
		err = fmt.Errorf("failed deleting user with error=%w", inErrors.ErrUserNotFound)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted user")

	return nil
}
