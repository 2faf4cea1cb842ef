package models

// Setting keys consumed by the services.
const (
	SettingBaseCurrency        = "base_currency"
	SettingOnboardingCompleted = "onboarding_completed"
)

// DefaultBaseCurrency is used until the user picks a base currency.
const DefaultBaseCurrency = "USD"

// Setting is a per-user key/value row in the local settings store.
type Setting struct {
	Base
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_setting" json:"user_id"`
	Key    string `gorm:"not null;uniqueIndex:idx_user_setting" json:"key"`
	Value  string `json:"value"`
}
