package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adam/pkg/adk"
	"github.com/papercomputeco/adam/pkg/cliui"
	"github.com/papercomputeco/adam/pkg/widget"
)

var _ = Describe("Step", func() {
	It("prints the message with a success mark", func() {
		var buf bytes.Buffer
		Expect(cliui.Step(&buf, "creating session", func() error { return nil })).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("creating session"))
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
	})

	It("returns the function error with a fail mark", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		Expect(cliui.Step(&buf, "sending", func() error { return boom })).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("formats sub-second durations in milliseconds", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("formats longer durations in seconds", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("RenderWidget", func() {
	It("renders text content without markdown", func() {
		w := widget.FromReply("hi", &adk.Reply{Message: "Hello world"}, nil)
		out := cliui.RenderWidget(w, cliui.RenderOptions{})
		Expect(out).To(ContainSubstring("hi"))
		Expect(out).To(ContainSubstring("Hello world"))
	})

	It("renders table rows with sorted columns", func() {
		w := widget.FromReply("prices", &adk.Reply{Message: `{"data": [{"symbol": "AAPL", "price": 190.5}, {"symbol": "MSFT"}]}`}, nil)
		out := cliui.RenderWidgetBody(w, cliui.RenderOptions{})
		Expect(out).To(ContainSubstring("price"))
		Expect(out).To(ContainSubstring("symbol"))
		Expect(out).To(ContainSubstring("AAPL"))
		Expect(out).To(ContainSubstring("190.5"))
		Expect(out).To(ContainSubstring("MSFT"))
	})

	It("renders an empty table notice", func() {
		w := widget.FromReply("prices", &adk.Reply{Message: `{"data": []}`}, nil)
		Expect(cliui.RenderWidgetBody(w, cliui.RenderOptions{})).To(ContainSubstring("No data available"))
	})

	It("renders image urls", func() {
		w := widget.FromReply("chart", &adk.Reply{Message: `{"chart": "http://x/c.png"}`}, nil)
		Expect(cliui.RenderWidgetBody(w, cliui.RenderOptions{})).To(ContainSubstring("http://x/c.png"))
	})

	It("renders errors", func() {
		w := widget.FromReply("hi", nil, errors.New("agent down"))
		out := cliui.RenderWidgetBody(w, cliui.RenderOptions{})
		Expect(out).To(ContainSubstring(cliui.FailMark))
		Expect(out).To(ContainSubstring("agent down"))
	})

	It("renders pending widgets", func() {
		Expect(cliui.RenderWidgetBody(widget.NewPending("hi"), cliui.RenderOptions{})).To(ContainSubstring("waiting"))
	})
})

var _ = Describe("Terminal detection", func() {
	It("treats buffers as non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
		Expect(cliui.Width(&buf)).To(Equal(80))
	})
})
