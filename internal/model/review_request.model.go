package model

import "time"

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

type ReviewRequestStatus string

const (
	StatusQueued    ReviewRequestStatus = "QUEUED"
	StatusSent      ReviewRequestStatus = "SENT"
	StatusDelivered ReviewRequestStatus = "DELIVERED"
	StatusClicked   ReviewRequestStatus = "CLICKED"
	StatusCompleted ReviewRequestStatus = "COMPLETED"
	StatusFailed    ReviewRequestStatus = "FAILED"
	StatusOptedOut  ReviewRequestStatus = "OPTED_OUT"
)

type ReviewRequest struct {
	ID                string              `json:"id"`
	BusinessID        string              `json:"businessId"`
	CustomerID        string              `json:"customerId"`
	Channel           Channel             `json:"channel"`
	Status            ReviewRequestStatus `json:"status"`
	ProviderMessageID string              `json:"providerMessageId,omitempty"`
	FailureReason     string              `json:"failureReason,omitempty"`
	SentAt            *time.Time          `json:"sentAt"`
	DeliveredAt       *time.Time          `json:"deliveredAt"`
	ClickedAt         *time.Time          `json:"clickedAt"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type CreateReviewRequestsRequest struct {
	CustomerIDs []string `json:"customerIds" validate:"required,min=1,max=500,dive,required"`
	Channel     Channel  `json:"channel"     validate:"required,channel"`
}

// SendRequest carries either a single id or a set of ids.
type SendRequest struct {
	ID  string   `json:"id"  validate:"required_without=IDs,excluded_with=IDs"`
	IDs []string `json:"ids" validate:"required_without=ID,omitempty,min=1,max=500,dive,required"`
}

func (r SendRequest) IsBulk() bool {
	return len(r.IDs) > 0
}

type ReviewRequestFilter struct {
	Status     *ReviewRequestStatus
	Channel    *Channel
	CustomerID *string
	Page
}

// SendResult is the outcome of a single dispatch.
type SendResult struct {
	MessageID string `json:"messageId"`
}

type BulkItemResult struct {
	ID        string `json:"id"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BulkSendResult struct {
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []BulkItemResult `json:"results"`
}

type EnqueueResult struct {
	Queued int `json:"queued"`
}

// SendJob is the payload the worker consumes.
type SendJob struct {
	BusinessID      string `json:"businessId"`
	ReviewRequestID string `json:"reviewRequestId"`
}

// OutboundMessage is what a messenger delivers to a provider.
type OutboundMessage struct {
	Channel Channel
	To      string
	Subject string
	Body    string
	HTML    string
}
