package viewer

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/litescript/ls-skydome/internal/ephem"
	"github.com/litescript/ls-skydome/internal/geo"
	"github.com/litescript/ls-skydome/internal/sky"
)

// sunOverGreenwich puts the sun on +X and the moon on +Y.
type sunOverGreenwich struct{ ephem.Provider }

func (sunOverGreenwich) SunPositionECEF(time.Time) mgl64.Vec3  { return mgl64.Vec3{1.496e11, 0, 0} }
func (sunOverGreenwich) MoonPositionECEF(time.Time) mgl64.Vec3 { return mgl64.Vec3{0, 3.844e8, 0} }

func newSky(t *testing.T) *sky.Sky {
	t.Helper()
	tex := filepath.Join(t.TempDir(), "moon.png")
	f, err := os.Create(tex)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 2, 1))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	opts := sky.DefaultOptions()
	opts.Ephemeris = sunOverGreenwich{ephem.NewAlmanac()}
	opts.MoonTexture = tex
	opts.DateTime = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	s, err := sky.New(opts)
	if err != nil {
		t.Fatalf("sky.New: %v", err)
	}
	return s
}

func TestCapture_ProjectsBodies(t *testing.T) {
	s := newSky(t)
	vp := NewViewport(1, "greenwich", geo.WGS84(), 0, 0, 0)
	s.Attach(vp, 1)

	f := Capture(s, vp)

	if f.Sun == nil {
		t.Fatal("sun missing from frame")
	}
	if f.Sun.El < 89.9 {
		t.Errorf("sun elevation = %.3f, want zenith", f.Sun.El)
	}
	if f.Sun.Bin != sky.BinSun {
		t.Errorf("sun bin = %d, want %d", f.Sun.Bin, sky.BinSun)
	}

	if f.Moon == nil {
		t.Fatal("moon missing from frame")
	}
	if math.Abs(f.Moon.Az-90) > 0.5 || math.Abs(f.Moon.El) > 1.5 {
		t.Errorf("moon az/el = %.2f/%.2f, want east horizon", f.Moon.Az, f.Moon.El)
	}
	if math.Abs(f.Moon.Range-3.844e8) > 1e7 {
		t.Errorf("moon range = %.0f", f.Moon.Range)
	}

	if !f.Atmosphere {
		t.Error("atmosphere not traversed")
	}
	if len(f.Stars) == 0 {
		t.Error("no stars above the horizon")
	}
	for _, st := range f.Stars {
		if st.El <= 0 {
			t.Fatalf("star below horizon in frame: %+v", st)
		}
	}
	if f.ClampedDuringSky {
		t.Error("projection clamp active during sky traversal")
	}
	if !f.clamp {
		t.Error("projection clamp not restored")
	}
}

func TestCapture_HiddenBodies(t *testing.T) {
	s := newSky(t)
	vp := NewViewport(1, "greenwich", geo.WGS84(), 0, 0, 0)
	s.Attach(vp, 1)

	s.SetVisible(sky.Sun, false)
	s.SetVisible(sky.Stars, false)
	f := Capture(s, vp)

	if f.Sun != nil {
		t.Error("hidden sun in frame")
	}
	if len(f.Stars) != 0 {
		t.Errorf("hidden stars in frame: %d", len(f.Stars))
	}
	if f.Moon == nil {
		t.Error("moon hidden with the stars")
	}
}

func TestCapture_AutoAmbience(t *testing.T) {
	s := newSky(t)
	day := NewViewport(1, "day", geo.WGS84(), 0, 0, 0)
	night := NewViewport(2, "night", geo.WGS84(), 0, 180, 0)
	s.Attach(day, 1)
	s.Attach(night, 2)
	s.SetAutoAmbience(true)

	if a := Capture(s, day).Ambient; math.Abs(a-0.92) > 1e-6 {
		t.Errorf("day ambient = %v, want 0.92", a)
	}
	if a := Capture(s, night).Ambient; math.Abs(a-0.2) > 1e-6 {
		t.Errorf("night ambient = %v, want 0.2", a)
	}
}

func TestViewport_SetObserver(t *testing.T) {
	tests := []struct {
		lat, lon         float64
		wantLat, wantLon float64
	}{
		{45, 10, 45, 10},
		{95, 190, 90, -170},
		{-91, -180, -90, 180},
		{0, 540, 0, 180},
	}
	for _, tt := range tests {
		vp := NewViewport(1, "", geo.WGS84(), 0, 0, 0)
		vp.SetObserver(tt.lat, tt.lon)
		lat, lon, _ := vp.Observer()
		if math.Abs(lat-tt.wantLat) > 1e-9 || math.Abs(lon-tt.wantLon) > 1e-9 {
			t.Errorf("SetObserver(%v, %v) = %v, %v, want %v, %v", tt.lat, tt.lon, lat, lon, tt.wantLat, tt.wantLon)
		}
	}
}

func TestViewport_ImplementsView(t *testing.T) {
	var _ sky.View = (*Viewport)(nil)
	var _ sky.CullVisitor = (*Frame)(nil)
	var _ sky.ClampSuspender = (*Frame)(nil)
}

func TestExportFrame(t *testing.T) {
	s := newSky(t)
	vp := NewViewport(1, "greenwich", geo.WGS84(), 0, 0, 0)
	s.Attach(vp, 1)
	if vp.LightingMode() != sky.SkyLight || vp.ClearColor() != (mgl64.Vec4{0, 0, 0, 1}) {
		t.Errorf("attach left mode %v clear %v", vp.LightingMode(), vp.ClearColor())
	}
	at := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	e := ExportFrame(Capture(s, vp), vp, at, "test")
	if math.Abs(e.Separation-90) > 1.5 {
		t.Errorf("sun-moon separation = %.2f, want ~90", e.Separation)
	}

	var buf bytes.Buffer
	if err := e.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded struct {
		Observer struct {
			Name string `json:"name"`
		} `json:"observer"`
		Frame struct {
			Sun *Object `json:"sun"`
		} `json:"frame"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Observer.Name != "greenwich" || decoded.Frame.Sun == nil {
		t.Errorf("decoded = %+v", decoded)
	}

	buf.Reset()
	e.WriteSummaryTable(&buf, 3)
	out := buf.String()
	for _, want := range []string{"2024-03-20T12:00:00Z", "Sun", "Moon", "Brightest 3:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
