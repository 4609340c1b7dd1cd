package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Layout represents the fixed grid of slots and pricing tiers for one physical parking area.
// Immutable after creation.
type Layout struct {
	ID        int64
	OwnerID   int64
	Name      string
	Location  string
	City      *string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}

// HasCoordinates returns true if both latitude and longitude are known
func (l *Layout) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// VehicleTypeTier defines a slot category of a layout with its hourly price
type VehicleTypeTier struct {
	ID           int64
	LayoutID     int64
	Name         string
	PricePerHour float64
	Prefix       string
	StartNumber  int
	SlotCount    int
	CreatedAt    time.Time
}

// TierSpec is a tier definition as supplied by the layout creation flow
type TierSpec struct {
	Name         string
	PricePerHour float64
	Count        int
	Prefix       string
	StartNumber  int
}

// IsEnabled returns true if the tier has both a valid price and a valid count.
// Disabled tiers are skipped at layout creation.
func (t TierSpec) IsEnabled() bool {
	return t.PricePerHour > 0 && t.Count > 0
}

// EffectivePrefix returns the label prefix, defaulting to the upper-cased
// first letter of the tier name
func (t TierSpec) EffectivePrefix() string {
	if prefix := strings.TrimSpace(t.Prefix); prefix != "" {
		return prefix
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}

// EffectiveStartNumber returns the first sequence number, defaulting to DefaultStartNumber
func (t TierSpec) EffectiveStartNumber() int {
	if t.StartNumber <= 0 {
		return DefaultStartNumber
	}
	return t.StartNumber
}
