package booking

import "time"

// ServiceType represents the kind of service being booked.
type ServiceType string

const (
	ServiceWalking    ServiceType = "walking"
	ServiceBoarding   ServiceType = "boarding"
	ServicePetSitting ServiceType = "pet_sitting"
	ServiceDaycare    ServiceType = "daycare"
	ServiceGrooming   ServiceType = "grooming"
	ServiceTraining   ServiceType = "training"
)

// IsValid returns true if the service type is recognized.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceWalking, ServiceBoarding, ServicePetSitting, ServiceDaycare, ServiceGrooming, ServiceTraining:
		return true
	}
	return false
}

// IsStayBased returns true for services where the dog stays with the
// provider over a bounded period rather than a single visit.
func (s ServiceType) IsStayBased() bool {
	return s == ServiceBoarding || s == ServicePetSitting
}

// StayPeriod is an immutable value object bounding a stay-based engagement.
// Departure must be strictly after arrival.
type StayPeriod struct {
	ArrivalAt   time.Time `json:"arrival_at"`
	DepartureAt time.Time `json:"departure_at"`
}

// IsValid returns true if the departure is strictly after the arrival.
func (p StayPeriod) IsValid() bool {
	return p.DepartureAt.After(p.ArrivalAt)
}

// Nights returns the number of whole nights covered by the stay.
func (p StayPeriod) Nights() int {
	if !p.IsValid() {
		return 0
	}
	return int(p.DepartureAt.Sub(p.ArrivalAt).Hours() / 24)
}
