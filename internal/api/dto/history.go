package dto

import "time"

type LocationResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type AlertLogResponse struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Location    LocationResponse `json:"location"`
	Status      string           `json:"status"`
	SentCount   int              `json:"sentCount"`
	FailedCount int              `json:"failedCount"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type ListAlertsResponse struct {
	Alerts []AlertLogResponse `json:"alerts"`
}
