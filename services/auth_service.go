package services

import (
	"fmt"

	"chat-direct/auth"
	"chat-direct/contract"
	"chat-direct/domain"
	"chat-direct/errors"
)

type IAuthService interface {
	Signup(username, email, password, avatarURL string) (domain.User, Token, error)
	Login(email, password string) (domain.User, Token, error)
}

type AuthService struct {
	users  contract.UserDirectory
	tokens *auth.TokenManager
}

type Token string

func NewAuthService(users contract.UserDirectory, tokens *auth.TokenManager) IAuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Signup(username, email, password, avatarURL string) (domain.User, Token, error) {
	valReq := auth.SignupRequest{
		Username: username,
		Email:    email,
		Password: password,
	}

	// 1. Validate business rules (email format, password complexity)
	// We check this before any expensive cryptographic operation.
	if err := auth.ValidateSignup(valReq); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password using Argon2id
	// Done in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist the user with the generated hash
	user, err := s.users.CreateUser(username, email, hashedPassword, avatarURL)
	if err != nil {
		return domain.User{}, "", err // Propagates ErrEmailTaken / ErrUsernameTaken
	}

	// 4. Generate the initial session token
	token, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}

func (s *AuthService) Login(email, password string) (domain.User, Token, error) {
	// 1. Retrieve user by email from storage
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	// 2. Compare the provided password with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	// 3. Issue the JWT token
	token, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}

	return user, Token(token), nil
}
