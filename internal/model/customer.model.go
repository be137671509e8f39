package model

import "time"

type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContactFor returns the contact value used to reach the customer on ch.
func (c *Customer) ContactFor(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	case ChannelSMS:
		return c.Phone
	}
	return ""
}

type CustomerCreateRequest struct {
	Name  string `json:"name"  validate:"required,max=200"`
	Email string `json:"email" validate:"required_without=Phone,omitempty,rremail"`
	Phone string `json:"phone" validate:"required_without=Email,omitempty,ukphone"`
}

type CustomerFilter struct {
	Search string
	Page
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}
