package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"tiketku/internal/apperrors"
	"tiketku/internal/models"
	"tiketku/internal/repository"
)

type UserService struct {
	userRepo *repository.UserRepository
	wallets  *WalletService
}

func NewUserService(userRepo *repository.UserRepository, wallets *WalletService) *UserService {
	return &UserService{
		userRepo: userRepo,
		wallets:  wallets,
	}
}

// Register creates a customer account and provisions its wallet, which
// seeds the registration bonus and checks the referrer's threshold.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperrors.NewValidation("email already registered")
	}

	if req.ReferrerID != nil {
		referrer, err := s.userRepo.GetByID(ctx, *req.ReferrerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check referrer: %w", err)
		}
		if referrer == nil || !referrer.IsActive {
			return nil, apperrors.NewValidation("unknown referrer")
		}
	}

	hash := sha256.Sum256([]byte(req.Password))
	user := &models.User{
		Email:        email,
		PasswordHash: fmt.Sprintf("%x", hash),
		Role:         models.RoleCustomer,
		ReferrerID:   req.ReferrerID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.wallets.GetOrCreate(ctx, user.UserID); err != nil {
		return nil, fmt.Errorf("failed to provision wallet: %w", err)
	}

	return &models.RegisterResponse{
		UserID: user.UserID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
