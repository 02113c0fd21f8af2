package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/widget"
)

var _ = Describe("Event", func() {
	It("marshals WidgetEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.WidgetEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeWidgetCompleted,
			EventID:       "evt_123",
			EmittedAt:     now,
			Source: eventstream.EventSource{
				AppName:   "tradingadvisor",
				UserID:    "dashboard_user_abc",
				SessionID: "s1",
			},
			Widget: *widget.FromReply("hi", &adk.Reply{Message: "Hello world"}, nil),
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("widget"))
		Expect(got["widget"]).To(HaveKeyWithValue("content", "Hello world"))
	})

	It("builds completed events with fresh ids", func() {
		w := widget.NewPending("hi")
		a := eventstream.NewWidgetCompleted(eventstream.EventSource{AppName: "app"}, w)
		b := eventstream.NewWidgetCompleted(eventstream.EventSource{AppName: "app"}, w)

		Expect(a.EventType).To(Equal(eventstream.EventTypeWidgetCompleted))
		Expect(a.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(a.EventID).To(HavePrefix("evt_"))
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.Widget.ID).To(Equal(w.ID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeWidgetCompleted).To(Equal("adam.widget.completed"))
	})

	It("provides ErrNilWidgetEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilWidgetEvent).To(MatchError("nil widget event"))
	})
})
