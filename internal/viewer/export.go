package viewer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-skydome/internal/astro"
)

// ObserverExport is the observer position of an exported frame.
type ObserverExport struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Height float64 `json:"height_m"`
}

// FrameExport is the JSON-serializable form of one captured frame.
type FrameExport struct {
	Timestamp time.Time      `json:"timestamp"`
	Ephemeris string         `json:"ephemeris"`
	Observer  ObserverExport `json:"observer"`
	Frame     *Frame         `json:"frame"`
	// Separation is the sun-moon angle in degrees when both are visible.
	Separation float64 `json:"sun_moon_separation_deg,omitempty"`
}

// ExportFrame pairs f with the viewport and time it was captured at.
func ExportFrame(f *Frame, vp *Viewport, at time.Time, ephemeris string) *FrameExport {
	lat, lon, h := vp.Observer()
	e := &FrameExport{
		Timestamp: at.UTC(),
		Ephemeris: ephemeris,
		Observer:  ObserverExport{Name: vp.Name(), Lat: lat, Lon: lon, Height: h},
		Frame:     f,
	}
	if f.Sun != nil && f.Moon != nil {
		e.Separation = astro.AngularSeparation(f.Sun.Az, f.Sun.El, f.Moon.Az, f.Moon.El)
	}
	return e
}

// WriteJSON writes the export as indented JSON.
func (e *FrameExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummaryTable writes a plain-text summary of the export, listing at
// most maxStars of the brightest stars.
func (e *FrameExport) WriteSummaryTable(w io.Writer, maxStars int) {
	o := e.Observer
	fmt.Fprintf(w, "Sky @ %s  (%s, %s)\n", e.Timestamp.Format(time.RFC3339), o.Name, e.Ephemeris)
	fmt.Fprintf(w, "Observer %.4f°, %.4f°, %.0f m\n", o.Lat, o.Lon, o.Height)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	fmt.Fprintf(w, "%-8s %9s %9s %14s\n", "Body", "Az", "El", "Range")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	writeBodyRow(w, "Sun", e.Frame.Sun)
	writeBodyRow(w, "Moon", e.Frame.Moon)

	if e.Separation > 0 {
		fmt.Fprintf(w, "Sun-moon separation %.2f°\n", e.Separation)
	}

	fmt.Fprintf(w, "\nAmbient %.2f  Atmosphere %t  Stars above horizon %d\n",
		e.Frame.Ambient, e.Frame.Atmosphere, len(e.Frame.Stars))

	n := min(maxStars, len(e.Frame.Stars))
	if n <= 0 {
		return
	}
	fmt.Fprintf(w, "\nBrightest %d:\n", n)
	// Stars are ordered dimmest first.
	for i := len(e.Frame.Stars) - 1; i >= len(e.Frame.Stars)-n; i-- {
		s := e.Frame.Stars[i]
		fmt.Fprintf(w, "  az %7.2f°  el %6.2f°  shade %.2f\n", s.Az, s.El, s.Brightness)
	}
}

func writeBodyRow(w io.Writer, name string, o *Object) {
	if o == nil {
		fmt.Fprintf(w, "%-8s %9s %9s %14s\n", name, "-", "-", "hidden")
		return
	}
	state := ""
	if o.El <= 0 {
		state = "  (below horizon)"
	}
	fmt.Fprintf(w, "%-8s %8.2f° %8.2f° %12.0f km%s\n", name, o.Az, o.El, o.Range/1000, state)
}
