package stream

import (
	"fmt"
	"time"

	"github.com/litescript/ls-skydome/internal/sky"
	"github.com/litescript/ls-skydome/internal/viewer"
)

// Message types sent to clients.
const (
	MessageHello = "hello"
	MessageFrame = "frame"
	MessageError = "error"
)

// Message is a server-to-client message.
type Message struct {
	Type  string        `json:"type"`
	View  sky.ViewID    `json:"view"`
	Time  time.Time     `json:"time"`
	Frame *viewer.Frame `json:"frame,omitempty"`
	Error string        `json:"error,omitempty"`
}

// Command is a client-to-server message. Any combination of fields may be
// set; they are applied in field order.
type Command struct {
	Visible      *VisibleCommand  `json:"visible,omitempty"`
	AutoAmbience *bool            `json:"autoAmbience,omitempty"`
	Ambient      *float64         `json:"ambient,omitempty"`
	Observer     *ObserverCommand `json:"observer,omitempty"`
}

// VisibleCommand shows or hides a body for every viewport.
type VisibleCommand struct {
	Body string `json:"body"`
	On   bool   `json:"on"`
}

// ObserverCommand moves the sender's observer.
type ObserverCommand struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// apply executes cmd for c. Runs on the Run goroutine.
func (s *Server) apply(c *client, cmd Command) error {
	if cmd.Visible == nil && cmd.AutoAmbience == nil && cmd.Ambient == nil && cmd.Observer == nil {
		return fmt.Errorf("empty command")
	}
	if v := cmd.Visible; v != nil {
		b, err := sky.ParseBody(v.Body)
		if err != nil {
			return err
		}
		s.sky.SetVisible(b, v.On)
	}
	if a := cmd.AutoAmbience; a != nil {
		s.sky.SetAutoAmbience(*a)
	}
	if a := cmd.Ambient; a != nil {
		s.sky.SetAmbientBrightness(*a, c.id)
	}
	if o := cmd.Observer; o != nil {
		c.vp.SetObserver(o.Lat, o.Lon)
	}
	s.log.Debug("view %d command applied", c.id)
	return nil
}
