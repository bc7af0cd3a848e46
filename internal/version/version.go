// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - WebSocket frame stream, Prometheus metrics, stdout tracing, TOML config
// 0.2.0 - Multi-viewport registry, clock sync, auto ambience, Bubble Tea preview
// 0.1.0 - Initial release: sky layout, scattering uniforms, star field, headless summary
