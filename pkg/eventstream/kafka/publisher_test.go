package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/eventstream/kafka"
	"github.com/papercomputeco/adam/pkg/widget"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ eventstream.Publisher = (*kafka.Publisher)(nil)

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
		event  *eventstream.WidgetEvent
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter(writer, kafka.Config{Topic: "adam.widgets"})
		w := widget.FromReply("hi", &adk.Reply{Message: "Hello world"}, nil)
		event = eventstream.NewWidgetCompleted(eventstream.EventSource{AppName: "tradingadvisor"}, w)
	})

	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
			Expect(err).To(MatchError(ContainSubstring("broker")))
		})

		It("requires a topic", func() {
			_, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(MatchError(ContainSubstring("topic")))
		})

		It("creates a publisher without dialing", func() {
			p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Close()).To(Succeed())
		})
	})

	It("returns ErrNilWidgetEvent for nil events", func() {
		Expect(pub.PublishWidget(context.Background(), nil)).To(MatchError(eventstream.ErrNilWidgetEvent))
		Expect(writer.messages).To(BeEmpty())
	})

	It("writes the event as JSON keyed by widget id", func() {
		Expect(pub.PublishWidget(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal(event.Widget.ID))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeWidgetCompleted)}))

		var got eventstream.WidgetEvent
		Expect(json.Unmarshal(msg.Value, &got)).To(Succeed())
		Expect(got.EventID).To(Equal(event.EventID))
		Expect(got.Widget.Content).To(Equal("Hello world"))
	})

	It("wraps writer errors", func() {
		writer.err = errors.New("broker down")
		err := pub.PublishWidget(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("adam.widgets")))
		Expect(errors.Is(err, writer.err)).To(BeTrue())
	})

	It("closes the writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
