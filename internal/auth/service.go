package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chat-relay/internal/database"
	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "chat-relay"

// Claims is the payload of the identity token handed to the relay.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Service struct {
	users     database.UserRepository
	secret    []byte
	expiresIn time.Duration
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(users database.UserRepository, secret []byte, expiresIn time.Duration) *Service {
	return &Service{
		users:     users,
		secret:    secret,
		expiresIn: expiresIn,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrInvalidRequest, err)
	}

	user, err := s.users.CreateUser(ctx, req)
	if err != nil {
		if errors.Is(err, chaterrors.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

// Authenticate verifies a username/password pair. Every failure, including
// an unknown user, is reported as ErrAuthFailure.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.Identity, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, chaterrors.ErrAuthFailure
	}

	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrAuthFailure, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, chaterrors.ErrAuthFailure
}

// IdentityFromToken resolves a token to the identity of a still-existing user.
func (s *Service) IdentityFromToken(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: invalid subject %q", chaterrors.ErrAuthFailure, claims.Subject)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", chaterrors.ErrAuthFailure, err)
	}
	return user.Identity(), nil
}

func (s *Service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, chaterrors.ErrAuthFailure
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, chaterrors.ErrAuthFailure
	}

	// Remove sensitive data
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) generateToken(user *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chaterrors.ErrTokenGeneration, err)
	}
	return token, nil
}
