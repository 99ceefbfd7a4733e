package controller_test

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papercomputeco/sous/pkg/controller"
	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/llm"
)

type reply struct {
	resp *llm.ChatResponse
	err  error
}

// fakeAsker records every call and answers with whatever the test pushes.
type fakeAsker struct {
	calls   chan string
	replies chan reply
}

func newFakeAsker() *fakeAsker {
	return &fakeAsker{
		calls:   make(chan string, 10),
		replies: make(chan reply, 10),
	}
}

func (f *fakeAsker) Chat(ctx context.Context, message string) (*llm.ChatResponse, error) {
	f.calls <- message
	select {
	case r := <-f.replies:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ = Describe("Controller", func() {
	var (
		ctx   context.Context
		store *conversation.Store
		asker *fakeAsker
		logs  *observer.ObservedLogs
		ctrl  *controller.Controller
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = conversation.NewStore()
		asker = newFakeAsker()

		var core zapcore.Core
		core, logs = observer.New(zap.DebugLevel)
		ctrl = controller.New(store, asker, controller.Config{}, zap.New(core))
	})

	AfterEach(func() {
		ctrl.Close()
	})

	submit := func(text string) *controller.Pending {
		store.SetDraft(text)
		return ctrl.Submit(ctx)
	}

	It("starts Idle", func() {
		Expect(ctrl.State()).To(Equal(controller.Idle))
		Expect(ctrl.Busy()).To(BeFalse())
		Expect(ctrl.Pending()).To(BeNil())
	})

	Describe("Submit", func() {
		DescribeTable("accepts non-blank input verbatim",
			func(text string) {
				p := submit(text)

				Expect(p).NotTo(BeNil())
				Expect(ctrl.State()).To(Equal(controller.Busy))

				turns := store.Turns()
				Expect(turns).To(HaveLen(1))
				Expect(turns[0].Role).To(Equal(conversation.RoleUser))
				Expect(turns[0].Content).To(Equal(text))

				Eventually(asker.calls).Should(Receive(Equal(text)))
				Consistently(asker.calls, 50*time.Millisecond).ShouldNot(Receive())
			},
			Entry("a plain question", "How do I boil an egg?"),
			Entry("a single character", "a"),
			Entry("surrounding whitespace", "  padded question  "),
			Entry("multiple lines", "eggs\nand ham"),
		)

		DescribeTable("ignores blank input",
			func(text string) {
				Expect(submit(text)).To(BeNil())

				Expect(ctrl.State()).To(Equal(controller.Idle))
				Expect(store.Len()).To(Equal(0))
				Expect(store.Draft()).To(Equal(text))
				Consistently(asker.calls, 50*time.Millisecond).ShouldNot(Receive())
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
			Entry("tabs and newlines", "\t\n \r\n"),
		)

		It("appends the user turn before the request settles", func() {
			p := submit("What about poaching?")

			Eventually(asker.calls).Should(Receive())
			Expect(store.Len()).To(Equal(1))
			Expect(p.Turn.Content).To(Equal("What about poaching?"))
			Expect(p.Message).To(Equal("What about poaching?"))
			Expect(p.Done()).NotTo(Receive())
		})

		It("ignores a second submission while Busy", func() {
			first := submit("first question")
			Expect(first).NotTo(BeNil())

			store.SetDraft("second question")
			Expect(ctrl.Submit(ctx)).To(BeNil())

			Expect(store.Len()).To(Equal(1))
			Expect(store.Draft()).To(Equal("second question"))
			Expect(ctrl.Pending()).To(BeIdenticalTo(first))

			Eventually(asker.calls).Should(Receive(Equal("first question")))
			Consistently(asker.calls, 50*time.Millisecond).ShouldNot(Receive())
		})
	})

	Describe("Settle", func() {
		It("appends the assistant turn on success", func() {
			p := submit("How do I keep pasta from sticking?")
			asker.replies <- reply{resp: &llm.ChatResponse{
				Answer:  "Use butter.",
				Sources: []string{"Recipe A...", "Recipe B..."},
			}}

			Expect(ctrl.Settle(p.Wait())).To(BeTrue())

			turns := store.Turns()
			Expect(turns).To(HaveLen(2))
			Expect(turns[1].Role).To(Equal(conversation.RoleAssistant))
			Expect(turns[1].Content).To(Equal("Use butter."))
			Expect(turns[1].Sources).To(Equal([]string{"Recipe A...", "Recipe B..."}))
			Expect(ctrl.State()).To(Equal(controller.Idle))
			Expect(store.Draft()).To(BeEmpty())
		})

		It("carries query bookkeeping onto the assistant turn", func() {
			p := submit("q")
			asker.replies <- reply{resp: &llm.ChatResponse{
				Answer:       "a",
				Sources:      []string{},
				QueryID:      "query-1",
				ResponseTime: 1.5,
			}}

			ctrl.Settle(p.Wait())

			last, ok := store.Last()
			Expect(ok).To(BeTrue())
			Expect(last.QueryID).To(Equal("query-1"))
			Expect(last.ResponseTime).To(Equal(1500 * time.Millisecond))
		})

		It("appends nothing on failure and reports it", func() {
			p := submit("How do I boil an egg?")
			asker.replies <- reply{err: errors.New("connection refused")}

			Expect(ctrl.Settle(p.Wait())).To(BeTrue())

			Expect(store.Len()).To(Equal(1))
			Expect(ctrl.State()).To(Equal(controller.Idle))
			Expect(store.Draft()).To(BeEmpty())

			failures := logs.FilterMessage("chat request failed").All()
			Expect(failures).To(HaveLen(1))
			Expect(failures[0].Level).To(Equal(zapcore.ErrorLevel))
			Expect(failures[0].ContextMap()["error"]).To(Equal("connection refused"))
		})

		It("logs a whole-rune preview of a long failed question", func() {
			question := strings.Repeat("a", 99) + "éééé"
			p := submit(question)
			asker.replies <- reply{err: errors.New("connection refused")}
			ctrl.Settle(p.Wait())

			failures := logs.FilterMessage("chat request failed").All()
			Expect(failures).To(HaveLen(1))
			preview, _ := failures[0].ContextMap()["message_preview"].(string)
			Expect(utf8.ValidString(preview)).To(BeTrue())
			Expect(preview).To(Equal(strings.Repeat("a", 99) + "é..."))
		})

		It("clears text typed while the request was in flight", func() {
			p := submit("first")
			store.SetDraft("typed while waiting")
			asker.replies <- reply{resp: &llm.ChatResponse{Answer: "ok"}}

			ctrl.Settle(p.Wait())
			Expect(store.Draft()).To(BeEmpty())
		})

		It("settles exactly once", func() {
			p := submit("q")
			asker.replies <- reply{resp: &llm.ChatResponse{Answer: "a"}}
			s := p.Wait()

			Expect(ctrl.Settle(s)).To(BeTrue())
			Expect(ctrl.Settle(s)).To(BeFalse())
			Expect(store.Len()).To(Equal(2))
		})

		It("ignores a settlement for another request", func() {
			p := submit("q")

			Expect(ctrl.Settle(controller.Settlement{Request: &controller.Pending{}})).To(BeFalse())
			Expect(ctrl.State()).To(Equal(controller.Busy))
			Expect(ctrl.Pending()).To(BeIdenticalTo(p))
		})

		It("ignores a settlement while Idle", func() {
			Expect(ctrl.Settle(controller.Settlement{})).To(BeFalse())
		})

		It("preserves append order across exchanges", func() {
			p := submit("How do I boil an egg?")
			asker.replies <- reply{resp: &llm.ChatResponse{Answer: "Ten minutes."}}
			ctrl.Settle(p.Wait())

			Expect(submit("What about poaching?")).NotTo(BeNil())

			var roles []conversation.Role
			for _, t := range store.Turns() {
				roles = append(roles, t.Role)
			}
			Expect(roles).To(Equal([]conversation.Role{
				conversation.RoleUser,
				conversation.RoleAssistant,
				conversation.RoleUser,
			}))
			Expect(store.Verify()).To(Succeed())
		})
	})

	Describe("cancellation", func() {
		It("settles as a failure when closed", func() {
			p := submit("q")
			Eventually(asker.calls).Should(Receive())

			ctrl.Close()

			s := p.Wait()
			Expect(s.Err).To(MatchError(context.Canceled))
			Expect(ctrl.Settle(s)).To(BeTrue())
			Expect(store.Len()).To(Equal(1))
		})

		It("enforces the configured timeout", func() {
			ctrl = controller.New(store, asker, controller.Config{Timeout: 20 * time.Millisecond}, nil)

			p := submit("q")

			var s controller.Settlement
			Eventually(p.Done()).Should(Receive(&s))
			Expect(s.Err).To(MatchError(context.DeadlineExceeded))

			ctrl.Settle(s)
			Expect(ctrl.State()).To(Equal(controller.Idle))
		})

		It("waits indefinitely without a timeout", func() {
			p := submit("q")

			Consistently(p.Done(), 100*time.Millisecond).ShouldNot(Receive())
			Expect(ctrl.Busy()).To(BeTrue())
		})
	})
})
