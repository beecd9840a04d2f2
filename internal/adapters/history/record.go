package history

import (
	"sos-alert-service/internal/domain"
	"time"
)

// JSON form of an AlertLog shared by the Redis store and the Kafka publisher.
type alertRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Status      string    `json:"status"`
	SentCount   int       `json:"sentCount"`
	FailedCount int       `json:"failedCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRecord(l domain.AlertLog) alertRecord {
	return alertRecord{
		ID:          l.ID,
		UserID:      l.UserID,
		Lat:         l.Location.Lat,
		Lng:         l.Location.Lng,
		Status:      string(l.Status),
		SentCount:   l.SentCount,
		FailedCount: l.FailedCount,
		CreatedAt:   l.CreatedAt,
	}
}

func (r alertRecord) toDomain() domain.AlertLog {
	return domain.AlertLog{
		ID:          r.ID,
		UserID:      r.UserID,
		Location:    domain.Location{Lat: r.Lat, Lng: r.Lng},
		Status:      domain.AlertStatus(r.Status),
		SentCount:   r.SentCount,
		FailedCount: r.FailedCount,
		CreatedAt:   r.CreatedAt,
	}
}
