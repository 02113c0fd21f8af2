package reconcile_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/genai"

	"github.com/papercomputeco/adam/pkg/reconcile"
)

var _ = Describe("ParseEvent", func() {
	It("decodes a data-prefixed line", func() {
		ev, ok := reconcile.ParseEvent(`data: {"id":"e1","author":"trader","content":{"role":"model","parts":[{"text":"hi"}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.ID).To(Equal("e1"))
		Expect(ev.Author).To(Equal("trader"))
		Expect(ev.Content.Role).To(Equal("model"))
		Expect(ev.Content.Parts).To(HaveLen(1))
		Expect(ev.Content.Parts[0].Text).To(Equal("hi"))
	})

	It("tolerates a missing data prefix", func() {
		ev, ok := reconcile.ParseEvent(`{"content":{"parts":[{"text":"bare"}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Content.Parts[0].Text).To(Equal("bare"))
	})

	It("tolerates a data prefix without a space", func() {
		ev, ok := reconcile.ParseEvent(`data:{"content":{"parts":[{"text":"tight"}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Content.Parts[0].Text).To(Equal("tight"))
	})

	It("decodes the thought flag", func() {
		ev, ok := reconcile.ParseEvent(`data: {"content":{"parts":[{"text":"hmm","thought":true}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Content.Parts[0].Thought).To(BeTrue())
	})

	DescribeTable("keeps text when unrelated fields have unexpected shapes",
		func(line, text string) {
			ev, ok := reconcile.ParseEvent(line)
			Expect(ok).To(BeTrue())
			Expect(ev.Content.Parts).To(HaveLen(1))
			Expect(ev.Content.Parts[0].Text).To(Equal(text))
			Expect(ev.Content.Parts[0].Thought).To(BeFalse())
		},
		Entry("url-safe base64 thoughtSignature",
			`data: {"content":{"parts":[{"text":"final answer","thoughtSignature":"ab-_cd=="}]}}`, "final answer"),
		Entry("numeric errorCode",
			`data: {"content":{"parts":[{"text":"OK"}]},"errorCode":500}`, "OK"),
		Entry("string partial flag",
			`data: {"partial":"yes","content":{"parts":[{"text":"OK"}]}}`, "OK"),
		Entry("unknown nested objects",
			`data: {"usageMetadata":{"candidatesTokenCount":"n/a"},"content":{"parts":[{"text":"OK","videoMetadata":7}]}}`, "OK"),
		Entry("thought given as a string",
			`data: {"content":{"parts":[{"text":"OK","thought":"true"}]}}`, "OK"),
		Entry("thought given as a number",
			`data: {"content":{"parts":[{"text":"OK","thought":1}]}}`, "OK"),
	)

	It("renders a numeric errorCode as text", func() {
		ev, ok := reconcile.ParseEvent(`{"errorCode":429,"errorMessage":"quota","content":{"parts":[{"text":"x"}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.ErrorCode).To(Equal("429"))
		Expect(ev.ErrorMessage).To(Equal("quota"))
	})

	It("leaves a non-string text empty", func() {
		ev, ok := reconcile.ParseEvent(`{"content":{"parts":[{"text":42},{"text":"ok"}]}}`)
		Expect(ok).To(BeTrue())
		Expect(ev.Content.Parts).To(HaveLen(2))
		Expect(ev.Content.Parts[0].Text).To(BeEmpty())
		Expect(ev.Content.Parts[1].Text).To(Equal("ok"))
	})

	DescribeTable("rejects non-conforming lines",
		func(line string) {
			ev, ok := reconcile.ParseEvent(line)
			Expect(ok).To(BeFalse())
			Expect(ev).To(BeNil())
		},
		Entry("empty", ""),
		Entry("whitespace only", "  \t "),
		Entry("broken JSON", `data: {not json`),
		Entry("JSON array", `data: [1,2,3]`),
		Entry("JSON null", `data: null`),
		Entry("no content", `data: {"actions":{"stateDelta":{}}}`),
		Entry("content without parts", `data: {"content":{"role":"model"}}`),
		Entry("empty parts", `data: {"content":{"parts":[]}}`),
		Entry("wrongly typed parts", `data: {"content":{"parts":"text"}}`),
		Entry("SSE comment", `: keep-alive`),
	)
})

var _ = Describe("IsThought", func() {
	It("flags parts with thought set", func() {
		Expect(reconcile.IsThought(&genai.Part{Text: "plan", Thought: true})).To(BeTrue())
	})

	DescribeTable("flags marker-prefixed text without the thought flag",
		func(text string) {
			Expect(reconcile.IsThought(&genai.Part{Text: text})).To(BeTrue())
		},
		Entry("reasoning", "/*REASONING*/because"),
		Entry("thinking", "/*THINKING*/hmm"),
		Entry("planning", "/*PLANNING*/step one"),
		Entry("action", "/*ACTION*/run tool"),
	)

	DescribeTable("does not flag ordinary text",
		func(text string) {
			Expect(reconcile.IsThought(&genai.Part{Text: text})).To(BeFalse())
		},
		Entry("plain", "final result"),
		Entry("marker not at start", "see /*PLANNING*/ notes"),
		Entry("lowercase marker", "/*planning*/step"),
		Entry("leading space", " /*ACTION*/run"),
	)

	It("does not flag a nil part", func() {
		Expect(reconcile.IsThought(nil)).To(BeFalse())
	})
})
