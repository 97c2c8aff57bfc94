package navmsg

import (
	"os"
	"path/filepath"
	"testing"
)

// TestPersistedEphemerisRoundTripsExactParameterValues satisfies the
// exact-round-trip invariant: writing a snapshot of an Ephemeris and reading
// it back must yield bit-identical float64 parameter values, relying on
// JSON's full float64 precision rather than any lossy text formatting.
func TestPersistedEphemerisRoundTripsExactParameterValues(t *testing.T) {
	want := []Ephemeris{
		{
			SV:       5,
			Week:     500,
			Health:   3,
			URA:      1,
			TGD:      -10 * p2_31,
			Toc:      1000 * 16.0,
			Af0:      12345 * p2_31,
			Af1:      -200 * p2_43,
			Af2:      5 * p2_55,
			IODE:     42,
			Crs:      100 * p2_5,
			DeltaN:   -50 * p2_43 * sc2Rad,
			M0:       777777 * p2_31 * sc2Rad,
			Cuc:      300 * p2_29,
			Ecc:      555555 * p2_33,
			Cus:      -400 * p2_29,
			SqrtA:    2_700_000_000 * p2_19,
			Toe:      600 * 16.0,
			Cic:      111 * p2_29,
			Omega0:   888888 * p2_31 * sc2Rad,
			Cis:      -222 * p2_29,
			I0:       999999 * p2_31 * sc2Rad,
			Crc:      333 * p2_5,
			Omega:    444444 * p2_31 * sc2Rad,
			OmegaDot: -12345 * p2_43 * sc2Rad,
			IDOT:     77 * p2_43 * sc2Rad,
		},
		{SV: 12, Week: 500, IODE: 7, SqrtA: 5153.649},
	}

	path := filepath.Join(t.TempDir(), "ephemeris.json")
	if err := SavePersistedEphemeris(path, want); err != nil {
		t.Fatalf("SavePersistedEphemeris: %v", err)
	}

	got, err := LoadPersistedEphemeris(path)
	if err != nil {
		t.Fatalf("LoadPersistedEphemeris: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadPersistedEphemerisMissingFileReturnsNilNoError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	entries, err := LoadPersistedEphemeris(path)
	if err != nil {
		t.Fatalf("LoadPersistedEphemeris: %v", err)
	}
	if entries != nil {
		t.Fatalf("entries = %v, want nil", entries)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected LoadPersistedEphemeris not to create the file")
	}
}
