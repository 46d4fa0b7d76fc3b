package domain

import "time"

// DeviceToken is the single push registration kept per account.
type DeviceToken struct {
	AccountID string    `json:"accountId"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}
