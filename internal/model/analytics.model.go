package model

import "time"

type AnalyticsFilter struct {
	Channel *Channel
	From    *time.Time
	To      *time.Time
}

type ChannelStats struct {
	Total     int64 `json:"total"`
	Sent      int64 `json:"sent"`
	Delivered int64 `json:"delivered"`
	Clicked   int64 `json:"clicked"`
}

type AnalyticsSummary struct {
	Total            int64                         `json:"total"`
	ByStatus         map[ReviewRequestStatus]int64 `json:"byStatus"`
	ByChannel        map[Channel]ChannelStats      `json:"byChannel"`
	ClickThroughRate float64                       `json:"clickThroughRate"`
}

type Place struct {
	PlaceID         string  `json:"placeId"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Phone           string  `json:"phone,omitempty"`
	Website         string  `json:"website,omitempty"`
	Rating          float64 `json:"rating,omitempty"`
	UserRatingCount int     `json:"userRatingCount,omitempty"`
}
