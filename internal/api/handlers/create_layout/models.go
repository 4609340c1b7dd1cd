package create_layout

import (
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	layoutModels "github.com/m04kA/SMC-ParkingService/internal/service/layouts/models"
	slotModels "github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	createLayout "github.com/m04kA/SMC-ParkingService/internal/usecase/create_layout"
)

// VehicleTypeRequest тип транспорта. Тип без цены или количества мест пропускается.
type VehicleTypeRequest struct {
	Name         string  `json:"name"`
	PricePerHour float64 `json:"pricePerHour"`
	Count        int     `json:"count"`
	Prefix       string  `json:"prefix,omitempty"`
	StartNumber  int     `json:"startNumber,omitempty"`
}

// CreateLayoutRequest HTTP request model
type CreateLayoutRequest struct {
	Name         string               `json:"name"`
	Location     string               `json:"location"`
	City         *string              `json:"city,omitempty"`
	Latitude     *float64             `json:"latitude,omitempty"`
	Longitude    *float64             `json:"longitude,omitempty"`
	VehicleTypes []VehicleTypeRequest `json:"vehicleTypes"`
}

// CreateLayoutResponse парковка с типами транспорта и сгенерированными слотами
type CreateLayoutResponse struct {
	layoutModels.LayoutResponse
	Slots []slotModels.SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateLayoutRequest) ToUseCaseRequest(ownerID int64) *createLayout.Request {
	tiers := make([]domain.TierSpec, 0, len(r.VehicleTypes))
	for _, vt := range r.VehicleTypes {
		tiers = append(tiers, domain.TierSpec{
			Name:         vt.Name,
			PricePerHour: vt.PricePerHour,
			Count:        vt.Count,
			Prefix:       vt.Prefix,
			StartNumber:  vt.StartNumber,
		})
	}

	return &createLayout.Request{
		OwnerID:   ownerID,
		Name:      r.Name,
		Location:  r.Location,
		City:      r.City,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Tiers:     tiers,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createLayout.Response) *CreateLayoutResponse {
	return &CreateLayoutResponse{
		LayoutResponse: layoutModels.FromDomainLayout(resp.Layout, resp.Tiers),
		Slots:          slotModels.FromDomainSlots(resp.Slots),
	}
}
