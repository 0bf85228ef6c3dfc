package oem

import (
	"strings"
	"testing"
	"time"
)

// sampleXML is a minimal OEM document with one state vector, matching the
// shape of the NASA ISS trajectory feed.
const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
  <oem id="CCSDS_OEM_VERS" version="2.0">
    <header>
      <CREATION_DATE>2022-077T19:43:48.110Z</CREATION_DATE>
      <ORIGINATOR>NASA/JSC/FOD/TOPO</ORIGINATOR>
    </header>
    <body>
      <segment>
        <metadata>
          <OBJECT_NAME>ISS</OBJECT_NAME>
          <OBJECT_ID>1998-067-A</OBJECT_ID>
          <CENTER_NAME>EARTH</CENTER_NAME>
          <REF_FRAME>EME2000</REF_FRAME>
          <TIME_SYSTEM>UTC</TIME_SYSTEM>
        </metadata>
        <data>
          <COMMENT>Units are in kg and m^2</COMMENT>
          <stateVector>
            <EPOCH>2022-079T00:00:00.000</EPOCH>
            <X units="km">749126.24316</X>
            <Y units="km">-5412435.30952</Y>
            <Z units="km">3192557.21655</Z>
            <X_DOT units="km/s">-4902.99637</X_DOT>
            <Y_DOT units="km/s">-1316.78386</Y_DOT>
            <Z_DOT units="km/s">-5499.48251</Z_DOT>
          </stateVector>
        </data>
      </segment>
    </body>
  </oem>
</ndm>`

func TestParseSingleSample(t *testing.T) {
	eph, err := Parse([]byte(sampleXML))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	if len(eph.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(eph.Samples))
	}

	sv := eph.Samples[0]
	if sv.Epoch != "2022-079T00:00:00.000" {
		t.Errorf("epoch = %q, want 2022-079T00:00:00.000", sv.Epoch)
	}

	// Day 79 of 2022 is March 20.
	want := time.Date(2022, 3, 20, 0, 0, 0, 0, time.UTC)
	if !sv.Time.Equal(want) {
		t.Errorf("parsed epoch time = %v, want %v", sv.Time, want)
	}

	if sv.Position != [3]float64{749126.24316, -5412435.30952, 3192557.21655} {
		t.Errorf("position = %v", sv.Position)
	}
	if sv.Velocity != [3]float64{-4902.99637, -1316.78386, -5499.48251} {
		t.Errorf("velocity = %v", sv.Velocity)
	}

	if eph.Header.Originator != "NASA/JSC/FOD/TOPO" {
		t.Errorf("originator = %q", eph.Header.Originator)
	}
	if eph.Metadata.ObjectName != "ISS" || eph.Metadata.RefFrame != "EME2000" {
		t.Errorf("metadata = %+v", eph.Metadata)
	}
	if len(eph.Comments) != 1 || eph.Comments[0] != "Units are in kg and m^2" {
		t.Errorf("comments = %v", eph.Comments)
	}

	if !eph.EpochRange.Min.Equal(want) || !eph.EpochRange.Max.Equal(want) {
		t.Errorf("epoch range = %+v, want both %v", eph.EpochRange, want)
	}
}

func TestParseEpochRange(t *testing.T) {
	xml := strings.Replace(sampleXML,
		"</stateVector>",
		`</stateVector>
		<stateVector>
		  <EPOCH>2022-079T00:04:00.000</EPOCH>
		  <X units="km">1.0</X><Y units="km">2.0</Y><Z units="km">3.0</Z>
		  <X_DOT units="km/s">0.1</X_DOT><Y_DOT units="km/s">0.2</Y_DOT><Z_DOT units="km/s">0.3</Z_DOT>
		</stateVector>`, 1)

	eph, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(eph.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(eph.Samples))
	}

	wantMin := time.Date(2022, 3, 20, 0, 0, 0, 0, time.UTC)
	wantMax := time.Date(2022, 3, 20, 0, 4, 0, 0, time.UTC)
	if !eph.EpochRange.Min.Equal(wantMin) {
		t.Errorf("range min = %v, want %v", eph.EpochRange.Min, wantMin)
	}
	if !eph.EpochRange.Max.Equal(wantMax) {
		t.Errorf("range max = %v, want %v", eph.EpochRange.Max, wantMax)
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{
			name: "missing velocity component",
			xml:  strings.Replace(sampleXML, `<Z_DOT units="km/s">-5499.48251</Z_DOT>`, "", 1),
		},
		{
			name: "non-numeric position",
			xml:  strings.Replace(sampleXML, ">749126.24316<", ">not-a-number<", 1),
		},
		{
			name: "missing epoch",
			xml:  strings.Replace(sampleXML, "<EPOCH>2022-079T00:00:00.000</EPOCH>", "", 1),
		},
		{
			name: "no state vectors",
			xml: `<?xml version="1.0"?><ndm><oem><header></header>
				<body><segment><metadata></metadata><data></data></segment></body></oem></ndm>`,
		},
		{
			name: "not XML at all",
			xml:  "503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.xml)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "plain",
			input: "2022-079T00:00:00",
			want:  time.Date(2022, 3, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds with Z",
			input: "2024-052T12:30:45.500Z",
			want:  time.Date(2024, 2, 21, 12, 30, 45, 500_000_000, time.UTC),
		},
		{
			name:  "day 1 is January 1",
			input: "2023-001T00:00:00.000",
			want:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap year day 366",
			input: "2024-366T23:59:59.000",
			want:  time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
		},
		{name: "day out of range", input: "2022-400T00:00:00", wantErr: true},
		{name: "missing time part", input: "2022-079", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "non-numeric hour", input: "2022-079Txx:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEpoch(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseEpoch(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEpoch(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseEpoch(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
