package service

import (
	"context"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/repository"
)

type SettingsService struct {
	SettingsRepo repository.SettingsRepositoryInterface
}

// Get returns "" for keys that were never set.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	return s.SettingsRepo.Get(ctx, key)
}

func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	return s.SettingsRepo.Set(ctx, key, value)
}

func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	return s.SettingsRepo.All(ctx)
}

// TwilioSettings reads the four provider keys.
func (s *SettingsService) TwilioSettings(ctx context.Context) (model.TwilioSettings, error) {
	var t model.TwilioSettings
	fields := []struct {
		key string
		dst *string
	}{
		{model.SettingTwilioAccountSID, &t.AccountSID},
		{model.SettingTwilioAuthToken, &t.AuthToken},
		{model.SettingTwilioPhoneNumber, &t.PhoneNumber},
		{model.SettingTwilioSenderID, &t.SenderID},
	}
	for _, f := range fields {
		v, err := s.SettingsRepo.Get(ctx, f.key)
		if err != nil {
			return model.TwilioSettings{}, err
		}
		*f.dst = v
	}
	return t, nil
}

func (s *SettingsService) SaveTwilioSettings(ctx context.Context, t model.TwilioSettings) error {
	values := map[string]string{
		model.SettingTwilioAccountSID:  t.AccountSID,
		model.SettingTwilioAuthToken:   t.AuthToken,
		model.SettingTwilioPhoneNumber: t.PhoneNumber,
		model.SettingTwilioSenderID:    t.SenderID,
	}
	for _, key := range model.DefaultSettings {
		if err := s.SettingsRepo.Set(ctx, key, values[key]); err != nil {
			return err
		}
	}
	return nil
}
