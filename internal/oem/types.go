package oem

import "time"

// StateVector is a single ephemeris sample: position and velocity at one epoch.
// Position is in kilometers, velocity in km/s, both in the Earth-centered
// inertial (J2000) frame of the OEM feed.
type StateVector struct {
	Epoch    string    // feed form, YYYY-DDDThh:mm:ss.sss
	Time     time.Time // Epoch parsed to an absolute UTC instant
	Position [3]float64
	Velocity [3]float64
}

// Header holds the OEM file header fields.
type Header struct {
	CreationDate string
	Originator   string
}

// Metadata holds the OEM segment metadata fields.
type Metadata struct {
	ObjectName string
	ObjectID   string
	CenterName string
	RefFrame   string
	TimeSystem string
}

// EpochRange is the span of epochs covered by an ephemeris.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Ephemeris is one refresh cycle's worth of state vectors plus the feed's
// descriptive sections. Immutable after construction; a new refresh builds a
// new Ephemeris and swaps it into the Store.
type Ephemeris struct {
	Source     string
	FetchedAt  time.Time
	Header     Header
	Metadata   Metadata
	Comments   []string
	EpochRange EpochRange
	Samples    []StateVector
}
