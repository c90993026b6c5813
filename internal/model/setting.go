package model

// Known settings keys.
const (
	SettingTwilioAccountSID    = "twilio_account_sid"
	SettingTwilioAuthToken     = "twilio_auth_token"
	SettingTwilioPhoneNumber   = "twilio_phone_number"
	SettingTwilioSenderID      = "twilio_sender_id"
	SettingDeepSeekAPIKey      = "deepseek_api_key"
	SettingTranslationProvider = "translation_provider"
)

// DefaultSettings are seeded with empty values when the store is created.
var DefaultSettings = []string{
	SettingTwilioAccountSID,
	SettingTwilioAuthToken,
	SettingTwilioPhoneNumber,
	SettingTwilioSenderID,
}

type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// TwilioSettings groups the messaging provider credentials.
type TwilioSettings struct {
	AccountSID  string `json:"account_sid"`
	AuthToken   string `json:"auth_token"`
	PhoneNumber string `json:"phone_number"`
	SenderID    string `json:"sender_id"`
}

// IsConfigured is true when a message could be sent with these credentials.
func (t TwilioSettings) IsConfigured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && (t.PhoneNumber != "" || t.SenderID != "")
}
