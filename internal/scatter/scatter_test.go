package scatter

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/litescript/ls-skydome/internal/scene"
)

func TestDerive_Pure(t *testing.T) {
	for _, ri := range []float64{6356752.314245, 6378137, 1737400, 1} {
		a, b := Derive(ri), Derive(ri)
		if a != b {
			t.Errorf("Derive(%v) not deterministic:\n%+v\n%+v", ri, a, b)
		}
		if a.OuterRadius != ri*1.025 {
			t.Errorf("Derive(%v).OuterRadius = %v, want %v", ri, a.OuterRadius, ri*1.025)
		}
	}
}

func TestDerive_Values(t *testing.T) {
	const ri = 6356752.314245
	p := Derive(ri)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"InnerRadius2", p.InnerRadius2, ri * ri},
		{"Scale", p.Scale, 1 / (0.025 * ri)},
		{"ScaleOverScaleDepth", p.ScaleOverScaleDepth, 4 / (0.025 * ri)},
		{"KrESun", p.KrESun, 0.0375},
		{"KmESun", p.KmESun, 0.0225},
		{"Kr4PI", p.Kr4PI, 0.0314159265},
		{"Km4PI", p.Km4PI, 0.0188495559},
		{"G2", p.G2, 0.009025},
		{"InvWavelength.r", p.InvWavelength[0], 5.6020447},
		{"InvWavelength.g", p.InvWavelength[1], 9.4732844},
		{"InvWavelength.b", p.InvWavelength[2], 19.6438026},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-6*math.Max(1, math.Abs(tt.want)) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if p.NSamples != 2 || p.FSamples != 2 || p.Weather != 1 {
		t.Errorf("samples/weather = %d/%v/%v", p.NSamples, p.FSamples, p.Weather)
	}
}

func TestInstall(t *testing.T) {
	ss := scene.NewStateSet()
	p := Derive(6378137)
	p.Install(ss)

	want := []string{
		UniformInvWavelength, UniformInnerRadius, UniformInnerRadius2,
		UniformOuterRadius, UniformOuterRadius2, UniformKrESun, UniformKmESun,
		UniformKr4PI, UniformKm4PI, UniformScale, UniformScaleDepth,
		UniformScaleOverScaleDepth, UniformG, UniformG2, UniformNSamples,
		UniformFSamples, UniformWeather,
	}
	if got := len(ss.Uniforms()); got != len(want) {
		t.Errorf("installed %d uniforms, want %d", got, len(want))
	}
	for _, name := range want {
		if ss.Uniform(name) == nil {
			t.Errorf("uniform %s missing", name)
		}
	}

	if n, ok := ss.Uniform(UniformNSamples).Int(); !ok || n != 2 {
		t.Errorf("%s = %v,%v, want int32 2", UniformNSamples, n, ok)
	}
	if v, ok := ss.Uniform(UniformInvWavelength).Vec3(); !ok || v == (mgl32.Vec3{}) {
		t.Errorf("%s = %v,%v", UniformInvWavelength, v, ok)
	}
	if f, ok := ss.Uniform(UniformOuterRadius).Float(); !ok || f != float32(p.OuterRadius) {
		t.Errorf("%s = %v,%v, want %v", UniformOuterRadius, f, ok, float32(p.OuterRadius))
	}

	// Installing twice leaves one uniform per name.
	p.Install(ss)
	if got := len(ss.Uniforms()); got != len(want) {
		t.Errorf("after reinstall %d uniforms, want %d", got, len(want))
	}
}
