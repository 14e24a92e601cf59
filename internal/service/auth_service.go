package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/pkg/crypto"
	jwtpkg "github.com/Singh4599/techno-sapiens/pkg/jwt"
)

// TokenSet is returned after a successful signup or login.
type TokenSet struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	College  string
}

type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*model.Profile, *TokenSet, error)
	Login(ctx context.Context, email, password string) (*model.Profile, *TokenSet, error)
}

type authService struct {
	profiles   repository.ProfileRepository
	jwtManager *jwtpkg.Manager
}

func NewAuthService(profiles repository.ProfileRepository, jwtManager *jwtpkg.Manager) AuthService {
	return &authService{profiles: profiles, jwtManager: jwtManager}
}

func (s *authService) SignUp(ctx context.Context, in SignUpInput) (*model.Profile, *TokenSet, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || len(in.Password) < 8 {
		return nil, nil, ErrInvalidCredentials
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &model.Profile{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		College:      strings.TrimSpace(in.College),
		Role:         model.RoleUser,
		PasswordHash: hash,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// The look-before-create check above races with concurrent signups;
		// the unique index settles the loser here.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create profile: %w", err)
	}

	tokens, err := s.issueTokens(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.Profile, *TokenSet, error) {
	profile, err := s.profiles.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}

	if !crypto.CheckPassword(password, profile.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, tokens, nil
}

func (s *authService) issueTokens(profile *model.Profile) (*TokenSet, error) {
	access, err := s.jwtManager.Generate(profile.ID, string(profile.Role))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &TokenSet{
		AccessToken: access,
		ExpiresIn:   int64(s.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}
