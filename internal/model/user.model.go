package model

import "time"

type User struct {
	ID             string    `json:"id"`
	ProviderUserID string    `json:"providerUserId"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	BusinessID     *string   `json:"businessId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type UserProfile struct {
	User     *User     `json:"user"`
	Business *Business `json:"business,omitempty"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type ProvisionRequest struct {
	ProviderUserID string `json:"providerUserId" validate:"required"`
	Email          string `json:"email"          validate:"required,rremail"`
	Name           string `json:"name"           validate:"max=120"`
}
