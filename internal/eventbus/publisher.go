// Package eventbus publishes fire-and-forget "inspection.completed" events
// over NATS, the same degrade-don't-fail connection pattern the teacher's
// internal/nvr/nats_publisher.go and cmd/server/main.go's NATS wiring use:
// a missing or unreachable broker disables publishing, never the caller.
package eventbus

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const inspectionCompletedSubject = "inspection.completed"

// Publisher wraps an optional NATS connection. A nil/unconnected Publisher
// is valid and simply drops publishes, matching the teacher's "nc = nil"
// fallback in cmd/server/main.go when nats.Connect fails.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials url and returns a Publisher. On failure it logs and returns
// a Publisher with no connection — publishing becomes a no-op rather than a
// startup failure, since NATS is purely an optional side-channel here.
func Connect(url string) *Publisher {
	if url == "" {
		return &Publisher{}
	}
	nc, err := nats.Connect(url, nats.Name("visual-aoi-server"), nats.Timeout(3*time.Second))
	if err != nil {
		log.Printf("[eventbus] NATS connect failed: %v (inspection-completed events disabled)", err)
		return &Publisher{}
	}
	log.Printf("[eventbus] connected to NATS at %s", url)
	return &Publisher{nc: nc}
}

// Close releases the underlying connection, if any.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// InspectionCompleted is the event payload published after each inspection.
type InspectionCompleted struct {
	SessionID      string  `json:"session_id"`
	Product        string  `json:"product"`
	OverallResult  string  `json:"overall_result"`
	TotalDevices   int     `json:"total_devices"`
	PassCount      int     `json:"pass_count"`
	FailCount      int     `json:"fail_count"`
	ProcessingTime float64 `json:"processing_time"`
	TimestampUnix  int64   `json:"timestamp_unix"`
}

// PublishInspectionCompleted marshals and publishes evt. A nil connection
// or marshal/publish error is logged and swallowed — per spec.md §7 this
// side channel must never affect the inspection response.
func (p *Publisher) PublishInspectionCompleted(evt InspectionCompleted) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[eventbus] marshal inspection.completed: %v", err)
		return
	}
	if err := p.nc.Publish(inspectionCompletedSubject, data); err != nil {
		log.Printf("[eventbus] publish inspection.completed: %v", err)
	}
}
