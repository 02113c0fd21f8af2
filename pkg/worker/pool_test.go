package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/eventstream"
	"github.com/papercomputeco/adam/pkg/storage/inmemory"
	"github.com/papercomputeco/adam/pkg/widget"
)

type fakeSender struct {
	mu      sync.Mutex
	prompts []string
	reply   func(text string) (*adk.Reply, error)
	block   chan struct{}
}

func (f *fakeSender) SendMessage(_ context.Context, _, _, text string) (*adk.Reply, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, text)
	f.mu.Unlock()

	if f.reply != nil {
		return f.reply(text)
	}
	return &adk.Reply{Message: "answer to " + text}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.WidgetEvent
	err    error
}

func (r *recordingPublisher) PublishWidget(_ context.Context, event *eventstream.WidgetEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

// deleteOnReadDriver removes a widget right after it is read, standing in for
// a DELETE request that lands between a worker's read and its write.
type deleteOnReadDriver struct {
	*inmemory.Driver
}

func (d deleteOnReadDriver) Get(ctx context.Context, id string) (*widget.Widget, error) {
	w, err := d.Driver.Get(ctx, id)
	if err == nil {
		_ = d.Driver.Delete(ctx, id)
	}
	return w, err
}

var _ = Describe("Worker Pool", func() {
	var (
		ctx       context.Context
		driver    *inmemory.Driver
		sender    *fakeSender
		publisher *recordingPublisher
	)

	newPool := func(c *Config) *Pool {
		c.Driver = driver
		c.Sender = sender
		c.Publisher = publisher
		c.AppName = "tradingadvisor"
		wp, err := NewPool(c)
		Expect(err).NotTo(HaveOccurred())
		return wp
	}

	// pendingWidget stores a pending widget the way the dashboard does before enqueueing.
	pendingWidget := func(prompt string) *widget.Widget {
		w := widget.NewPending(prompt)
		Expect(driver.Put(ctx, w)).To(Succeed())
		return w
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		sender = &fakeSender{}
		publisher = &recordingPublisher{}
	})

	Describe("NewPool", func() {
		It("requires a driver", func() {
			_, err := NewPool(&Config{Sender: sender})
			Expect(err).To(MatchError(ContainSubstring("storage driver")))
		})

		It("requires a sender", func() {
			_, err := NewPool(&Config{Driver: driver})
			Expect(err).To(MatchError(ContainSubstring("sender")))
		})

		It("applies defaults", func() {
			c := &Config{}
			wp := newPool(c)
			defer wp.Close()
			Expect(c.NumWorkers).To(Equal(defaultNumWorkers))
			Expect(c.QueueSize).To(Equal(defaultJobQueueSize))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp := newPool(&Config{})
			Expect(wp.Enqueue(Job{Widget: pendingWidget("hi"), UserID: "u1", SessionID: "s1"})).To(BeTrue())
			wp.Close()
		})

		It("drops jobs when the queue is full", func() {
			sender.block = make(chan struct{})
			wp := newPool(&Config{NumWorkers: 1, QueueSize: 1})

			// The first job occupies the worker, the second fills the queue.
			Expect(wp.Enqueue(Job{Widget: pendingWidget("one")})).To(BeTrue())
			Eventually(func() int { return len(wp.queue) }).Should(BeZero())
			Expect(wp.Enqueue(Job{Widget: pendingWidget("two")})).To(BeTrue())
			Expect(wp.Enqueue(Job{Widget: pendingWidget("three")})).To(BeFalse())

			close(sender.block)
			wp.Close()
			Expect(sender.prompts).To(ConsistOf("one", "two"))
		})
	})

	Describe("processing", func() {
		It("completes the stored widget and publishes an event", func() {
			wp := newPool(&Config{})
			w := pendingWidget("prices")
			Expect(wp.Enqueue(Job{Widget: w, UserID: "u1", SessionID: "s1"})).To(BeTrue())
			wp.Close()

			got, err := driver.Get(ctx, w.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(widget.StatusDone))
			Expect(got.Content).To(Equal("answer to prices"))

			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0]
			Expect(event.EventType).To(Equal(eventstream.EventTypeWidgetCompleted))
			Expect(event.Source).To(Equal(eventstream.EventSource{AppName: "tradingadvisor", UserID: "u1", SessionID: "s1"}))
			Expect(event.Widget.ID).To(Equal(w.ID))
		})

		It("classifies JSON answers", func() {
			sender.reply = func(string) (*adk.Reply, error) {
				return &adk.Reply{Message: `{"data": [{"symbol": "AAPL"}]}`}, nil
			}
			wp := newPool(&Config{})
			w := pendingWidget("table please")
			wp.Enqueue(Job{Widget: w})
			wp.Close()

			got, err := driver.Get(ctx, w.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Type).To(Equal(widget.TypeTable))
		})

		It("stores a failed error widget when the agent request fails", func() {
			sender.reply = func(string) (*adk.Reply, error) {
				return nil, &adk.TransportError{Op: "send message", StatusCode: 500, Message: "agent service returned Internal Server Error"}
			}
			wp := newPool(&Config{})
			w := pendingWidget("hi")
			wp.Enqueue(Job{Widget: w})
			wp.Close()

			got, err := driver.Get(ctx, w.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(widget.StatusFailed))
			Expect(got.Type).To(Equal(widget.TypeError))
			Expect(got.Error).To(Equal("agent service returned Internal Server Error"))
			Expect(publisher.events).To(HaveLen(1))
		})

		It("does not resurrect widgets removed while in flight", func() {
			sender.block = make(chan struct{})
			wp := newPool(&Config{NumWorkers: 1})
			w := pendingWidget("hi")
			wp.Enqueue(Job{Widget: w})

			Expect(driver.Delete(ctx, w.ID)).To(Succeed())
			close(sender.block)
			wp.Close()

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			Expect(publisher.events).To(BeEmpty())
		})

		It("does not resurrect a widget deleted just before the completion write", func() {
			w := pendingWidget("hi")
			wp, err := NewPool(&Config{
				Driver:    deleteOnReadDriver{driver},
				Sender:    sender,
				Publisher: publisher,
			})
			Expect(err).NotTo(HaveOccurred())

			// Reading the widget removes it, as a concurrent delete would.
			_, err = deleteOnReadDriver{driver}.Get(ctx, w.ID)
			Expect(err).NotTo(HaveOccurred())

			wp.Enqueue(Job{Widget: w})
			wp.Close()

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			Expect(publisher.events).To(BeEmpty())
		})

		It("keeps the widget when publishing fails", func() {
			publisher.err = errors.New("broker down")
			wp := newPool(&Config{})
			w := pendingWidget("hi")
			wp.Enqueue(Job{Widget: w})
			wp.Close()

			got, err := driver.Get(ctx, w.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(widget.StatusDone))
		})

		It("answers concurrent jobs independently", func() {
			wp := newPool(&Config{NumWorkers: 4})
			widgets := make([]*widget.Widget, 0, 20)
			for i := range 20 {
				w := pendingWidget(string(rune('a' + i)))
				widgets = append(widgets, w)
				Expect(wp.Enqueue(Job{Widget: w})).To(BeTrue())
			}
			wp.Close()

			for _, w := range widgets {
				got, err := driver.Get(ctx, w.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.Content).To(Equal("answer to " + w.Prompt))
			}
		})
	})
})
