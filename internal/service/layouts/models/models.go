package models

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// TierResponse тип транспорта парковки
type TierResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	PricePerHour float64 `json:"pricePerHour"`
	Prefix       string  `json:"prefix"`
	StartNumber  int     `json:"startNumber"`
	SlotCount    int     `json:"slotCount"`
}

// LayoutResponse парковка с типами транспорта
type LayoutResponse struct {
	ID        int64          `json:"id"`
	OwnerID   int64          `json:"ownerId"`
	Name      string         `json:"name"`
	Location  string         `json:"location"`
	City      *string        `json:"city,omitempty"`
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Tiers     []TierResponse `json:"vehicleTypes,omitempty"`
}

// LayoutListResponse список парковок
type LayoutListResponse struct {
	Layouts []LayoutResponse `json:"layouts"`
}

// FromDomainLayout конвертирует доменную парковку и её типы транспорта в ответ
func FromDomainLayout(l *domain.Layout, tiers []*domain.VehicleTypeTier) LayoutResponse {
	resp := LayoutResponse{
		ID:        l.ID,
		OwnerID:   l.OwnerID,
		Name:      l.Name,
		Location:  l.Location,
		City:      l.City,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: l.CreatedAt,
	}

	if len(tiers) > 0 {
		resp.Tiers = make([]TierResponse, 0, len(tiers))
		for _, t := range tiers {
			resp.Tiers = append(resp.Tiers, FromDomainTier(t))
		}
	}

	return resp
}

// FromDomainTier конвертирует тип транспорта в ответ
func FromDomainTier(t *domain.VehicleTypeTier) TierResponse {
	return TierResponse{
		ID:           t.ID,
		Name:         t.Name,
		PricePerHour: t.PricePerHour,
		Prefix:       t.Prefix,
		StartNumber:  t.StartNumber,
		SlotCount:    t.SlotCount,
	}
}
