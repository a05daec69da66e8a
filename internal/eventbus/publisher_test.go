package eventbus_test

import (
	"testing"

	"github.com/jnguyen/visual-aoi/internal/eventbus"
)

func TestConnectEmptyURLDegradesToNoOp(t *testing.T) {
	p := eventbus.Connect("")
	defer p.Close()

	// Must not panic with no underlying connection.
	p.PublishInspectionCompleted(eventbus.InspectionCompleted{SessionID: "s1", Product: "widgetA"})
}

func TestConnectUnreachableURLDegradesToNoOp(t *testing.T) {
	p := eventbus.Connect("nats://127.0.0.1:1")
	defer p.Close()

	p.PublishInspectionCompleted(eventbus.InspectionCompleted{SessionID: "s2", Product: "widgetB"})
}

func TestPublishOnNilPublisherIsSafe(t *testing.T) {
	var p *eventbus.Publisher
	p.PublishInspectionCompleted(eventbus.InspectionCompleted{SessionID: "s3"})
}
