package model

import "time"

type Business struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PlaceID    string         `json:"placeId"`
	Address    string         `json:"address,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Website    string         `json:"website,omitempty"`
	IsActive   bool           `json:"isActive"`
	Settings   map[string]any `json:"settings"`
	SmsUsed    int            `json:"smsUsed"`
	SmsLimit   int            `json:"smsLimit"`
	EmailUsed  int            `json:"emailUsed"`
	EmailLimit int            `json:"emailLimit"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (b *Business) HasSettings() bool {
	return b != nil && len(b.Settings) > 0
}

// HasCredit reports whether the usage counter for ch is below its limit.
// A zero limit means unlimited.
func (b *Business) HasCredit(ch Channel) bool {
	switch ch {
	case ChannelSMS:
		return b.SmsLimit == 0 || b.SmsUsed < b.SmsLimit
	case ChannelEmail:
		return b.EmailLimit == 0 || b.EmailUsed < b.EmailLimit
	}
	return false
}

type OnboardRequest struct {
	PlaceID string `json:"placeId" validate:"required,max=255"`
	Name    string `json:"name"    validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Phone   string `json:"phone"   validate:"omitempty,ukphone"`
	Website string `json:"website" validate:"omitempty,url"`
}

type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" validate:"required"`
}

// BusinessContext is the resolved tenant of an authenticated caller.
type BusinessContext struct {
	User     *User
	Business *Business
}

func (c *BusinessContext) BusinessID() string {
	return c.Business.ID
}

type SetupStatus struct {
	IsComplete   bool      `json:"isComplete"`
	HasCustomers bool      `json:"hasCustomers"`
	HasSettings  bool      `json:"hasSettings"`
	IsActive     bool      `json:"isActive"`
	CheckedAt    time.Time `json:"checkedAt"`
}

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
