package reconcile_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/adam/pkg/logger"
	"github.com/papercomputeco/adam/pkg/reconcile"
	"github.com/papercomputeco/adam/pkg/sse"
)

func lines(ls ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, l := range ls {
			if !yield(l, nil) {
				return
			}
		}
	}
}

func textEvent(texts ...string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, fmt.Sprintf(`{"text":%q}`, t))
	}
	return `data: {"content":{"parts":[` + strings.Join(parts, ",") + `]}}`
}

var _ = Describe("Reconcile", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with visible text parts", func() {
		It("joins text across events", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				`data: {"content":{"parts":[{"text":"Hello "}]}}`,
				`data: {"content":{"parts":[{"text":"world"}]}}`,
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("Hello world"))
		})

		It("keeps arrival order across events and parts", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				textEvent("A", "B"),
				textEvent("C"),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("ABC"))
		})

		It("does not deduplicate repeated text", func() {
			answer, err := reconcile.Reconcile(ctx, lines(textEvent("ha"), textEvent("ha")))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("haha"))
		})

		It("trims surrounding whitespace of the final answer only", func() {
			answer, err := reconcile.Reconcile(ctx, lines(textEvent("  a "), textEvent(" b  \n")))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("a  b"))
		})
	})

	Context("with internal reasoning", func() {
		It("returns the fallback for a stream of only thoughts", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				`data: {"content":{"parts":[{"text":"secret plan","thought":true}]}}`,
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal(reconcile.Fallback))
			Expect(answer).To(Equal("Response received"))
		})

		It("drops marker-prefixed text and keeps the rest", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				textEvent("/*ACTION*/run tool"),
				textEvent("final result"),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("final result"))
		})

		It("drops /*PLANNING*/ text when thought is explicitly false", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				`data: {"content":{"parts":[{"text":"/*PLANNING*/go long","thought":false},{"text":"Buy."}]}}`,
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("Buy."))
		})

		It("never surfaces thought text regardless of content", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				textEvent("visible"),
				`data: {"content":{"parts":[{"text":"visible too","thought":true}]}}`,
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("visible"))
		})
	})

	Context("with noise in the stream", func() {
		It("skips a malformed line and continues", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				`data: {not json`,
				textEvent("OK"),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("OK"))
		})

		It("ignores blank lines, comments and partless events", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				"",
				"   ",
				": ping",
				`data: {"actions":{"stateDelta":{"x":1}}}`,
				`data: {"content":{"parts":[{"functionCall":{"name":"quote"}}]}}`,
				textEvent("done"),
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("done"))
		})

		It("keeps final text from events carrying fields it does not read", func() {
			answer, err := reconcile.Reconcile(ctx, lines(
				`data: {"content":{"parts":[{"text":"reasoning","thought":true,"thoughtSignature":"ab-_cd=="}]}}`,
				`data: {"content":{"parts":[{"text":"final answer","thoughtSignature":"ab-_cd=="}]},"errorCode":500}`,
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("final answer"))
		})

		It("returns the fallback for an empty stream", func() {
			answer, err := reconcile.Reconcile(ctx, lines())
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal(reconcile.Fallback))
		})
	})

	Context("when the line source fails", func() {
		It("returns the error and no partial answer", func() {
			boom := errors.New("stream reset")
			src := func(yield func(string, error) bool) {
				if !yield(textEvent("partial"), nil) {
					return
				}
				yield("", boom)
			}

			answer, err := reconcile.Reconcile(ctx, src)
			Expect(err).To(MatchError(boom))
			Expect(answer).To(BeEmpty())
		})
	})

	Context("when the context is cancelled", func() {
		It("discards the partial answer", func() {
			cctx, cancel := context.WithCancel(ctx)
			src := func(yield func(string, error) bool) {
				if !yield(textEvent("partial"), nil) {
					return
				}
				cancel()
				yield(textEvent("more"), nil)
			}

			answer, err := reconcile.Reconcile(cctx, src)
			Expect(err).To(MatchError(context.Canceled))
			Expect(answer).To(BeEmpty())
		})
	})

	Context("fed by a LineReader", func() {
		It("produces the same answer for any chunking", func() {
			body := textEvent("Grüße ") + "\n" +
				`data: {"content":{"parts":[{"text":"ignored","thought":true}]}}` + "\n" +
				"data: {broken\n" +
				textEvent("aus 東京") + "\n"

			whole, err := reconcile.Reconcile(ctx, sse.NewLineReader(strings.NewReader(body)).All())
			Expect(err).NotTo(HaveOccurred())
			Expect(whole).To(Equal("Grüße aus 東京"))

			oneByte, err := reconcile.Reconcile(ctx, sse.NewLineReader(iotest.OneByteReader(strings.NewReader(body))).All())
			Expect(err).NotTo(HaveOccurred())
			Expect(oneByte).To(Equal(whole))
		})

		It("reads past an event of several megabytes", func() {
			big := `data: {"content":{"parts":[{"text":"` + strings.Repeat("z", 2*1024*1024) + `","thought":true}]}}`
			body := big + "\n" + textEvent("OK") + "\n"

			answer, err := reconcile.Reconcile(ctx, sse.NewLineReader(strings.NewReader(body)).All())
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("OK"))
		})

		It("ignores a final event that lacks a terminator", func() {
			body := textEvent("kept") + "\n" + textEvent("dropped")
			answer, err := reconcile.Reconcile(ctx, sse.NewLineReader(strings.NewReader(body)).All())
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(Equal("kept"))
		})
	})
})

var _ = Describe("Reconciler", func() {
	It("counts what it saw", func() {
		r := reconcile.New()
		r.Add("")
		r.Add(`data: {broken`)
		r.Add(`data: {"content":{"parts":[{"text":"x"},{"text":"y","thought":true},{"text":"/*THINKING*/z"}]}}`)
		r.Add(textEvent("w"))

		stats := r.Stats()
		Expect(stats.Lines).To(Equal(4))
		Expect(stats.Events).To(Equal(2))
		Expect(stats.Skipped).To(Equal(1))
		Expect(stats.ThoughtParts).To(Equal(2))
		Expect(stats.IncludedParts).To(Equal(2))
		Expect(r.Answer()).To(Equal("xw"))
	})

	It("records agent error messages without failing", func() {
		r := reconcile.New()
		r.Add(`data: {"errorCode":"MALFORMED_FUNCTION_CALL","errorMessage":"bad tool call"}`)

		Expect(r.Stats().Skipped).To(Equal(1))
		Expect(r.Stats().AgentErrors).To(ConsistOf("bad tool call"))
		Expect(r.Answer()).To(Equal(reconcile.Fallback))
	})

	It("logs skipped lines at debug level", func() {
		var buf bytes.Buffer
		r := reconcile.New(reconcile.WithLogger(logger.New(logger.WithWriter(&buf), logger.WithDebug(true))))
		r.Add(`data: {not json`)

		Expect(buf.String()).To(ContainSubstring("skipping malformed event"))
	})

	It("keeps independent state per instance", func() {
		a := reconcile.New()
		b := reconcile.New()
		a.Add(textEvent("alpha"))
		b.Add(textEvent("beta"))

		Expect(a.Answer()).To(Equal("alpha"))
		Expect(b.Answer()).To(Equal("beta"))
	})
})
