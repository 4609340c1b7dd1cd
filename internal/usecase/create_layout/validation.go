package create_layout

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// plannedTier тип транспорта, прошедший валидацию, с вычисленными метками слотов
type plannedTier struct {
	spec   domain.TierSpec
	prefix string
	start  int
	labels []string
}

// validateRequest валидирует поля парковки
func validateRequest(req *Request) error {
	if req.OwnerID <= 0 {
		return fmt.Errorf("%w: ownerID must be positive", ErrInvalidInput)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > domain.MaxLayoutNameLen {
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, domain.MaxLayoutNameLen)
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(location) > domain.MaxLocationLen {
		return fmt.Errorf("%w: location is longer than %d characters", ErrInvalidInput, domain.MaxLocationLen)
	}

	// Координаты указываются парой
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidInput)
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 {
			return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidInput)
		}
		if *req.Longitude < -180 || *req.Longitude > 180 {
			return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidInput)
		}
	}

	if len(req.Tiers) > domain.MaxTiersPerLayout {
		return fmt.Errorf("%w: at most %d vehicle types allowed", ErrInvalidInput, domain.MaxTiersPerLayout)
	}

	return nil
}

// planTiers отбирает участвующие типы транспорта и генерирует метки их слотов.
// Метки уникальны в пределах парковки.
func planTiers(specs []domain.TierSpec) ([]plannedTier, error) {
	planned := make([]plannedTier, 0, len(specs))
	names := make(map[string]struct{}, len(specs))
	labels := make(map[string]string)

	for _, spec := range specs {
		if !spec.IsEnabled() {
			continue
		}

		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: vehicle type name is required", ErrInvalidInput)
		}
		if _, dup := names[spec.Name]; dup {
			return nil, fmt.Errorf("%w: vehicle type %q listed twice", ErrInvalidInput, spec.Name)
		}
		names[spec.Name] = struct{}{}

		if spec.Count > domain.MaxSlotsPerTier {
			return nil, fmt.Errorf("%w: vehicle type %q has more than %d slots", ErrInvalidInput, spec.Name, domain.MaxSlotsPerTier)
		}

		prefix := spec.EffectivePrefix()
		start := spec.EffectiveStartNumber()
		tierLabels := domain.GenerateSlotLabels(prefix, start, spec.Count)

		for _, label := range tierLabels {
			if other, taken := labels[label]; taken {
				return nil, fmt.Errorf("%w: %s is generated by both %q and %q", ErrDuplicateLabel, label, other, spec.Name)
			}
			labels[label] = spec.Name
		}

		planned = append(planned, plannedTier{
			spec:   spec,
			prefix: prefix,
			start:  start,
			labels: tierLabels,
		})
	}

	if len(planned) == 0 {
		return nil, ErrNoEnabledTiers
	}

	return planned, nil
}
