package domain

// Layout creation defaults
const (
	DefaultStartNumber = 1
	MaxSlotsPerTier    = 1000
	MaxTiersPerLayout  = 20
	MaxLayoutNameLen   = 200
	MaxLocationLen     = 500
)

// Booking validation constants
const (
	MinDurationHours    = 1
	MaxDurationHours    = 72
	MaxCustomerNameLen  = 200
	MaxVehicleNumberLen = 32
)

// SystemActorID identifies writes performed by the service itself (reconciler)
const SystemActorID int64 = 0
