// Package drivertest holds the behavior every storage.Driver must share.
// Driver test suites call DescribeDriver from inside their own container.
package drivertest

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/storage"
	"github.com/papercomputeco/adam/pkg/widget"
)

// DescribeDriver registers the shared driver tests. newDriver is called once per
// test and the returned driver is closed afterwards.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	pending := func(prompt string, offset time.Duration) *widget.Widget {
		w := widget.NewPending(prompt)
		w.CreatedAt = time.Unix(1735689600, 0).UTC().Add(offset)
		return w
	}

	It("rejects a nil widget", func() {
		Expect(driver.Put(ctx, nil)).To(MatchError(storage.ErrNilWidget))
	})

	It("stores and retrieves a widget", func() {
		w := pending("prices", 0)
		w.Complete(&adk.Reply{Message: `{"data": [{"symbol": "AAPL"}]}`}, nil)
		Expect(driver.Put(ctx, w)).To(Succeed())

		got, err := driver.Get(ctx, w.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(w.ID))
		Expect(got.Prompt).To(Equal("prices"))
		Expect(got.Type).To(Equal(widget.TypeTable))
		Expect(got.Status).To(Equal(widget.StatusDone))
		Expect(got.Rows).To(HaveLen(1))
		Expect(got.Rows[0]).To(HaveKeyWithValue("symbol", "AAPL"))
		Expect(got.CreatedAt.Equal(w.CreatedAt)).To(BeTrue())
		Expect(got.CompletedAt).NotTo(BeNil())
	})

	It("returns NotFoundError for unknown ids", func() {
		_, err := driver.Get(ctx, "missing")
		var nf storage.NotFoundError
		Expect(errors.As(err, &nf)).To(BeTrue())
		Expect(nf.ID).To(Equal("missing"))
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("replaces a widget on Put with the same id", func() {
		w := pending("hi", 0)
		Expect(driver.Put(ctx, w)).To(Succeed())

		w.Complete(&adk.Reply{Message: "Hello world"}, nil)
		Expect(driver.Put(ctx, w)).To(Succeed())

		got, err := driver.Get(ctx, w.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(widget.StatusDone))
		Expect(got.Content).To(Equal("Hello world"))

		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("lists widgets oldest first", func() {
		second := pending("second", time.Second)
		first := pending("first", 0)
		third := pending("third", 2*time.Second)
		for _, w := range []*widget.Widget{second, first, third} {
			Expect(driver.Put(ctx, w)).To(Succeed())
		}

		// Replacing a widget keeps its position.
		first.Complete(&adk.Reply{Message: "done"}, nil)
		Expect(driver.Put(ctx, first)).To(Succeed())

		list, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		prompts := make([]string, 0, len(list))
		for _, w := range list {
			prompts = append(prompts, w.Prompt)
		}
		Expect(prompts).To(Equal([]string{"first", "second", "third"}))
	})

	It("returns an empty list for an empty board", func() {
		list, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})

	It("updates an existing widget in place", func() {
		w := pending("q", 0)
		Expect(driver.Put(ctx, w)).To(Succeed())

		w.Complete(&adk.Reply{Message: "done"}, nil)
		Expect(driver.Update(ctx, w)).To(Succeed())

		got, err := driver.Get(ctx, w.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(widget.StatusDone))
		Expect(got.Content).To(Equal("done"))

		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("refuses to update a widget that was deleted", func() {
		w := pending("q", 0)
		Expect(driver.Put(ctx, w)).To(Succeed())
		Expect(driver.Delete(ctx, w.ID)).To(Succeed())

		w.Complete(&adk.Reply{Message: "late"}, nil)
		Expect(storage.IsNotFound(driver.Update(ctx, w))).To(BeTrue())

		n, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("rejects a nil widget on Update", func() {
		Expect(driver.Update(ctx, nil)).To(MatchError(storage.ErrNilWidget))
	})

	It("deletes a widget", func() {
		w := pending("bye", 0)
		Expect(driver.Put(ctx, w)).To(Succeed())
		Expect(driver.Delete(ctx, w.ID)).To(Succeed())

		_, err := driver.Get(ctx, w.ID)
		Expect(storage.IsNotFound(err)).To(BeTrue())

		Expect(storage.IsNotFound(driver.Delete(ctx, w.ID))).To(BeTrue())
	})

	It("clears the board", func() {
		for i := range 3 {
			Expect(driver.Put(ctx, pending("w", time.Duration(i)*time.Second))).To(Succeed())
		}

		n, err := driver.Clear(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		count, err := driver.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(BeZero())
	})
}
