// Package oem decodes NASA OEM (Orbit Ephemeris Message) XML into an
// in-memory Ephemeris and manages the current-refresh snapshot.
//
// The feed is the public ISS trajectory file (ISS.OEM_J2K_EPH.xml): a CCSDS
// OEM document with one segment of state vectors in the J2000 inertial frame,
// positions in km and velocities in km/s, epochs in day-of-year form.
package oem

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// XML structures matching the OEM feed. Numeric elements carry a units
// attribute in the real feed, so values are read from character data.

type xmlNDM struct {
	XMLName xml.Name `xml:"ndm"`
	OEM     xmlOEM   `xml:"oem"`
}

type xmlOEM struct {
	Header xmlHeader `xml:"header"`
	Body   xmlBody   `xml:"body"`
}

type xmlHeader struct {
	CreationDate string `xml:"CREATION_DATE"`
	Originator   string `xml:"ORIGINATOR"`
}

type xmlBody struct {
	Segment xmlSegment `xml:"segment"`
}

type xmlSegment struct {
	Metadata xmlMetadata `xml:"metadata"`
	Data     xmlData     `xml:"data"`
}

type xmlMetadata struct {
	ObjectName string `xml:"OBJECT_NAME"`
	ObjectID   string `xml:"OBJECT_ID"`
	CenterName string `xml:"CENTER_NAME"`
	RefFrame   string `xml:"REF_FRAME"`
	TimeSystem string `xml:"TIME_SYSTEM"`
}

type xmlData struct {
	Comments     []string         `xml:"COMMENT"`
	StateVectors []xmlStateVector `xml:"stateVector"`
}

type xmlStateVector struct {
	Epoch string   `xml:"EPOCH"`
	X     xmlValue `xml:"X"`
	Y     xmlValue `xml:"Y"`
	Z     xmlValue `xml:"Z"`
	XDot  xmlValue `xml:"X_DOT"`
	YDot  xmlValue `xml:"Y_DOT"`
	ZDot  xmlValue `xml:"Z_DOT"`
}

type xmlValue struct {
	Units string `xml:"units,attr"`
	Text  string `xml:",chardata"`
}

// Parse decodes raw OEM XML into an Ephemeris. Any missing or non-numeric
// field in any state vector aborts the whole parse, as does a document with
// zero samples: a refresh is taken whole or not at all.
//
// Source and FetchedAt are left for the caller to fill in.
func Parse(data []byte) (*Ephemeris, error) {
	var doc xmlNDM
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal OEM XML: %w", err)
	}

	raw := doc.OEM.Body.Segment.Data.StateVectors
	if len(raw) == 0 {
		return nil, fmt.Errorf("OEM document contains no state vectors")
	}

	samples := make([]StateVector, 0, len(raw))
	for i, sv := range raw {
		parsed, err := parseStateVector(sv)
		if err != nil {
			return nil, fmt.Errorf("state vector %d: %w", i, err)
		}
		samples = append(samples, parsed)
	}

	eph := &Ephemeris{
		Header: Header{
			CreationDate: strings.TrimSpace(doc.OEM.Header.CreationDate),
			Originator:   strings.TrimSpace(doc.OEM.Header.Originator),
		},
		Metadata: Metadata{
			ObjectName: doc.OEM.Body.Segment.Metadata.ObjectName,
			ObjectID:   doc.OEM.Body.Segment.Metadata.ObjectID,
			CenterName: doc.OEM.Body.Segment.Metadata.CenterName,
			RefFrame:   doc.OEM.Body.Segment.Metadata.RefFrame,
			TimeSystem: doc.OEM.Body.Segment.Metadata.TimeSystem,
		},
		Comments: doc.OEM.Body.Segment.Data.Comments,
		EpochRange: EpochRange{
			Min: samples[0].Time,
			Max: samples[0].Time,
		},
		Samples: samples,
	}

	for _, s := range samples[1:] {
		if s.Time.Before(eph.EpochRange.Min) {
			eph.EpochRange.Min = s.Time
		}
		if s.Time.After(eph.EpochRange.Max) {
			eph.EpochRange.Max = s.Time
		}
	}

	return eph, nil
}

func parseStateVector(sv xmlStateVector) (StateVector, error) {
	epoch := strings.TrimSpace(sv.Epoch)
	if epoch == "" {
		return StateVector{}, fmt.Errorf("missing EPOCH")
	}

	t, err := ParseEpoch(epoch)
	if err != nil {
		return StateVector{}, err
	}

	fields := []struct {
		name string
		val  xmlValue
	}{
		{"X", sv.X}, {"Y", sv.Y}, {"Z", sv.Z},
		{"X_DOT", sv.XDot}, {"Y_DOT", sv.YDot}, {"Z_DOT", sv.ZDot},
	}

	var nums [6]float64
	for i, f := range fields {
		s := strings.TrimSpace(f.val.Text)
		if s == "" {
			return StateVector{}, fmt.Errorf("missing %s", f.name)
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return StateVector{}, fmt.Errorf("non-numeric %s %q: %w", f.name, s, err)
		}
		nums[i] = n
	}

	return StateVector{
		Epoch:    epoch,
		Time:     t,
		Position: [3]float64{nums[0], nums[1], nums[2]},
		Velocity: [3]float64{nums[3], nums[4], nums[5]},
	}, nil
}

// ParseEpoch converts an OEM day-of-year epoch (YYYY-DDDThh:mm:ss.sss, with
// an optional trailing Z) to a UTC time.Time.
func ParseEpoch(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")

	datePart, timePart, ok := strings.Cut(s, "T")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid epoch %q: missing T separator", s)
	}

	yearStr, dayStr, ok := strings.Cut(datePart, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("invalid epoch date %q", datePart)
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}
	dayOfYear, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}
	if dayOfYear < 1 || dayOfYear > 366 {
		return time.Time{}, fmt.Errorf("epoch day-of-year %d out of range", dayOfYear)
	}

	hms := strings.SplitN(timePart, ":", 3)
	if len(hms) != 3 {
		return time.Time{}, fmt.Errorf("invalid epoch time %q", timePart)
	}
	hour, err := strconv.Atoi(hms[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch hour %q: %w", hms[0], err)
	}
	min, err := strconv.Atoi(hms[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch minute %q: %w", hms[1], err)
	}
	sec, err := strconv.ParseFloat(hms[2], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch second %q: %w", hms[2], err)
	}

	// Day 1 = Jan 1. Seconds may carry a fractional part.
	t := time.Date(year, 1, 1, hour, min, 0, 0, time.UTC)
	t = t.AddDate(0, 0, dayOfYear-1)
	t = t.Add(time.Duration(sec * float64(time.Second)))

	return t, nil
}
