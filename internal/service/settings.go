package service

import (
	"context"
	"fmt"
	"strconv"

	"tiketku/internal/apperrors"
	"tiketku/internal/models"
	"tiketku/internal/repository"
	"tiketku/internal/settings"
)

// settingKeys whitelists the tunable keys and how their values parse.
var settingKeys = map[string]func(string) bool{
	settings.KeyCancellationPolicyHours: isInt,
	settings.KeyCommissionPct:           isFloat,
	settings.KeyPayoutHoldHours:         isInt,
	settings.KeyRegistrationBonusFree:   isInt,
	settings.KeyReferralBonusFree:       isInt,
	settings.KeyReferralThreshold:       isInt,
	settings.KeyBonusValidityDays:       isInt,
}

func isInt(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= 0
}

func isFloat(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f >= 0
}

type SettingsService struct {
	settingRepo *repository.SettingRepository
}

func NewSettingsService(settingRepo *repository.SettingRepository) *SettingsService {
	return &SettingsService{settingRepo: settingRepo}
}

func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	rows, err := s.settingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return rows, nil
}

// Set overrides one platform setting. Unknown keys and unparseable
// values are rejected so a typo cannot silently disable a policy.
func (s *SettingsService) Set(ctx context.Context, req *models.SetSettingRequest) error {
	validate, ok := settingKeys[req.Key]
	if !ok {
		return apperrors.NewValidation("unknown setting key %q", req.Key)
	}
	if !validate(req.Value) {
		return apperrors.NewValidation("invalid value %q for setting %q", req.Value, req.Key)
	}

	if err := s.settingRepo.Set(ctx, req.Key, req.Value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
