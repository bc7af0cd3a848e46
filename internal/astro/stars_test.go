package astro

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultStars_NonEmpty(t *testing.T) {
	stars := DefaultStars()

	// Should have well over 100 stars
	if len(stars) < 100 {
		t.Errorf("Expected at least 100 stars, got %d", len(stars))
	}
}

func TestDefaultStars_KnownStars(t *testing.T) {
	stars := DefaultStars()

	// Bounds in degrees for readability.
	knownStars := map[string]struct {
		minRA, maxRA   float64
		minDec, maxDec float64
		maxMag         float64
	}{
		"Sirius":     {100, 103, -18, -15, 0}, // brightest star
		"Vega":       {278, 281, 37, 40, 0.5}, // summer triangle
		"Polaris":    {35, 40, 88, 90, 2.5},   // north star
		"Canopus":    {94, 98, -54, -51, 0},   // second brightest
		"Betelgeuse": {87, 90, 6, 9, 1.0},     // Orion's shoulder
	}

	starMap := make(map[string]Star)
	for _, s := range stars {
		starMap[s.Name] = s
	}

	for name, expected := range knownStars {
		star, found := starMap[name]
		if !found {
			t.Errorf("Expected star %s not in catalog", name)
			continue
		}

		ra, dec := radToDeg(star.RA), radToDeg(star.Dec)
		if ra < expected.minRA || ra > expected.maxRA {
			t.Errorf("%s RA=%v°, expected %v-%v", name, ra, expected.minRA, expected.maxRA)
		}
		if dec < expected.minDec || dec > expected.maxDec {
			t.Errorf("%s Dec=%v°, expected %v-%v", name, dec, expected.minDec, expected.maxDec)
		}
		if star.Mag > expected.maxMag {
			t.Errorf("%s Mag=%v, expected < %v", name, star.Mag, expected.maxMag)
		}
	}
}

func TestDefaultStars_ValidCoordinates(t *testing.T) {
	seen := make(map[string]bool)
	for _, star := range DefaultStars() {
		if star.RA < 0 || star.RA >= 2*math.Pi {
			t.Errorf("Star %s has invalid RA: %v", star.Name, star.RA)
		}
		if star.Dec < -math.Pi/2 || star.Dec > math.Pi/2 {
			t.Errorf("Star %s has invalid Dec: %v", star.Name, star.Dec)
		}
		if star.Mag < -2 || star.Mag > 5 {
			t.Errorf("Star %s has unusual magnitude: %v", star.Name, star.Mag)
		}
		if star.Name == "" {
			t.Error("Found star with empty name")
		}
		if seen[star.Name] {
			t.Errorf("Duplicate star name: %s", star.Name)
		}
		seen[star.Name] = true
	}
}

func TestDefaultStars_BrightestFirst(t *testing.T) {
	stars := DefaultStars()

	if len(stars) > 0 && stars[0].Name != "Sirius" {
		t.Errorf("First star should be Sirius (brightest), got %s", stars[0].Name)
	}
	for i := 0; i < 10 && i < len(stars); i++ {
		if stars[i].Mag > 1.0 {
			t.Errorf("Star %d (%s) has mag %v, expected < 1.0 for brightest stars",
				i, stars[i].Name, stars[i].Mag)
		}
	}
}

func TestFilterByMagnitude(t *testing.T) {
	stars := []Star{
		{Name: "a", Mag: -1.46},
		{Name: "b", Mag: 0.5},
		{Name: "c", Mag: 2.0},
		{Name: "d", Mag: 4.2},
	}

	tests := []struct {
		name      string
		threshold float64
		want      []string
	}{
		{"disabled", NoMagnitudeFilter, []string{"a", "b", "c", "d"}},
		{"below disabled", -5, []string{"a", "b", "c", "d"}},
		{"zero", 0, []string{"b", "c", "d"}},
		{"inclusive", 2.0, []string{"c", "d"}},
		{"all dropped", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByMagnitude(stars, tt.threshold)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterByMagnitude(%v) kept %d stars, want %d", tt.threshold, len(got), len(tt.want))
			}
			for i, s := range got {
				if s.Name != tt.want[i] {
					t.Errorf("star %d = %s, want %s", i, s.Name, tt.want[i])
				}
				if tt.threshold > NoMagnitudeFilter && s.Mag < tt.threshold {
					t.Errorf("star %s mag %v below threshold %v", s.Name, s.Mag, tt.threshold)
				}
			}
		})
	}

	if len(stars) != 4 {
		t.Error("FilterByMagnitude modified its input")
	}
}

func TestBrightness(t *testing.T) {
	lo, hi := MagnitudeRange([]Star{{Mag: 3}, {Mag: -1}, {Mag: 1}})
	if lo != -1 || hi != 3 {
		t.Fatalf("MagnitudeRange() = (%v, %v), want (-1, 3)", lo, hi)
	}
	if got := Brightness(1, lo, hi); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Brightness(1) = %v, want 0.5", got)
	}
	if got := Brightness(2, 2, 2); got != 1 {
		t.Errorf("Brightness over degenerate range = %v, want 1", got)
	}
}

func TestParseCatalog(t *testing.T) {
	in := strings.Join([]string{
		"# name,ra,dec,mag",
		"",
		"Sirius,1.767792,-0.291749,-1.46",
		"Broken,abc,0.5,",
		"Short,1.0",
		"Vega,4.873570,0.676908,0.03\r",
	}, "\n")

	stars, err := ParseCatalog(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCatalog() error = %v", err)
	}
	if len(stars) != 4 {
		t.Fatalf("ParseCatalog() returned %d records, want 4", len(stars))
	}

	want := []Star{
		{"Sirius", 1.767792, -0.291749, -1.46},
		{"Broken", 0, 0.5, 0},
		{"Short", 1.0, 0, 0},
		{"Vega", 4.873570, 0.676908, 0.03},
	}
	for i, w := range want {
		if stars[i] != w {
			t.Errorf("record %d = %+v, want %+v", i, stars[i], w)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadCatalog(filepath.Join(dir, "nope.csv")); err == nil {
			t.Error("LoadCatalog() on a missing file returned nil error")
		}
	})

	t.Run("only comments", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		if err := os.WriteFile(path, []byte("# nothing\n\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadCatalog(path)
		if !errors.Is(err, ErrEmptyCatalog) {
			t.Errorf("LoadCatalog() error = %v, want ErrEmptyCatalog", err)
		}
	})

	t.Run("records", func(t *testing.T) {
		path := filepath.Join(dir, "stars.csv")
		if err := os.WriteFile(path, []byte("Deneb,5.416768,0.790289,1.25\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		stars, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog() error = %v", err)
		}
		if len(stars) != 1 || stars[0].Name != "Deneb" {
			t.Errorf("LoadCatalog() = %+v", stars)
		}
	})
}
