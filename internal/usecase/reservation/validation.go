package reservation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// validateBookRequest валидирует входные данные бронирования
func validateBookRequest(req *BookRequest) error {
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotID must be positive", ErrInvalidInput)
	}

	if req.ActorID <= 0 {
		return fmt.Errorf("%w: caller identity is required", ErrInvalidInput)
	}

	customer := strings.TrimSpace(req.CustomerName)
	if customer == "" {
		return fmt.Errorf("%w: customerName is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(customer) > domain.MaxCustomerNameLen {
		return fmt.Errorf("%w: customerName is longer than %d characters", ErrInvalidInput, domain.MaxCustomerNameLen)
	}

	vehicle := strings.TrimSpace(req.VehicleNumber)
	if vehicle == "" {
		return fmt.Errorf("%w: vehicleNumber is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(vehicle) > domain.MaxVehicleNumberLen {
		return fmt.Errorf("%w: vehicleNumber is longer than %d characters", ErrInvalidInput, domain.MaxVehicleNumberLen)
	}

	if req.DurationHours < domain.MinDurationHours || req.DurationHours > domain.MaxDurationHours {
		return fmt.Errorf("%w: durationHours must be within %d..%d",
			ErrInvalidInput, domain.MinDurationHours, domain.MaxDurationHours)
	}

	return nil
}

// validateReleaseRequest валидирует входные данные освобождения
func validateReleaseRequest(req *ReleaseRequest) error {
	if req.SlotID <= 0 {
		return fmt.Errorf("%w: slotID must be positive", ErrInvalidInput)
	}

	if req.ActorID <= 0 {
		return fmt.Errorf("%w: caller identity is required", ErrInvalidInput)
	}

	return nil
}

// validateVehicleType проверяет, что запрошенный тип транспорта совпадает с типом слота
func validateVehicleType(requested string, slot *domain.Slot) error {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil
	}

	if !strings.EqualFold(requested, slot.VehicleType) {
		return fmt.Errorf("%w: slot %s accepts %q, got %q", ErrVehicleTypeMismatch, slot.Label, slot.VehicleType, requested)
	}

	return nil
}
