package render_test

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/render"
)

var _ = Describe("Preview", func() {
	It("truncates a long snippet to 150 characters plus an ellipsis", func() {
		snippet := strings.Repeat("a", 150) + strings.Repeat("b", 150)

		preview := render.Preview(snippet)

		Expect(preview).To(Equal(strings.Repeat("a", 150) + "..."))
		Expect(snippet).To(HaveLen(300))
	})

	It("appends the ellipsis to short snippets too", func() {
		Expect(render.Preview("Recipe A")).To(Equal("Recipe A..."))
	})

	It("keeps a snippet of exactly 150 characters whole", func() {
		snippet := strings.Repeat("x", 150)
		Expect(render.Preview(snippet)).To(Equal(snippet + "..."))
	})

	It("counts characters, not bytes", func() {
		snippet := strings.Repeat("é", 200)

		preview := render.Preview(snippet)

		Expect(utf8.ValidString(preview)).To(BeTrue())
		Expect(utf8.RuneCountInString(preview)).To(Equal(153))
	})
})

var _ = Describe("Renderer", func() {
	var r *render.Renderer

	BeforeEach(func() {
		var err error
		r, err = render.New(render.Options{Style: render.StylePlain, Width: 100})
		Expect(err).NotTo(HaveOccurred())
	})

	plain := func(s string) string {
		return ansi.Strip(s)
	}

	It("defaults the width", func() {
		d, err := render.New(render.Options{Style: render.StylePlain})
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Width()).To(Equal(80))
	})

	It("keeps an explicit style", func() {
		Expect(render.ResolveStyle("light")).To(Equal("light"))
		Expect(r.Style()).To(Equal(render.StylePlain))
	})

	It("renders a user turn with its label", func() {
		out := plain(r.Turn(conversation.UserTurn("How do I boil an egg?")))

		Expect(out).To(HavePrefix("You"))
		Expect(out).To(ContainSubstring("How do I boil an egg?"))
		Expect(out).NotTo(ContainSubstring("Reference Recipes:"))
	})

	It("renders source previews under an assistant answer", func() {
		turn := conversation.AssistantTurn("Use butter.", []string{"Recipe A", "Recipe B"})

		out := plain(r.Turn(turn))

		Expect(out).To(HavePrefix("Assistant"))
		Expect(out).To(ContainSubstring("Use butter."))
		Expect(out).To(ContainSubstring("Reference Recipes:"))
		Expect(out).To(ContainSubstring("Recipe A..."))
		Expect(out).To(ContainSubstring("Recipe B..."))
	})

	It("does not mutate the stored snippet when rendering", func() {
		long := strings.Repeat("s", 300)
		store := conversation.NewStore()
		_, err := store.AppendTurn(conversation.AssistantTurn("answer", []string{long}))
		Expect(err).NotTo(HaveOccurred())

		_ = r.Transcript(store.Turns())

		Expect(store.Turns()[0].Sources[0]).To(Equal(long))
	})

	It("shows the header for an empty source list but not for a missing one", func() {
		withEmpty := plain(r.Turn(conversation.AssistantTurn("a", []string{})))
		withNil := plain(r.Turn(conversation.AssistantTurn("a", nil)))

		Expect(withEmpty).To(ContainSubstring("Reference Recipes:"))
		Expect(withNil).NotTo(ContainSubstring("Reference Recipes:"))
	})

	It("adds query bookkeeping when present", func() {
		turn := conversation.AssistantTurn("a", nil)
		turn.QueryID = "query-42"
		turn.ResponseTime = 1234 * time.Millisecond

		out := plain(r.Turn(turn))

		Expect(out).To(ContainSubstring("query-42 · 1.23s"))
	})

	It("joins a transcript oldest first", func() {
		out := plain(r.Transcript([]conversation.Turn{
			conversation.UserTurn("first question"),
			conversation.AssistantTurn("first answer", nil),
		}))

		Expect(strings.Index(out, "first question")).To(BeNumerically("<", strings.Index(out, "first answer")))
	})

	It("renders an empty transcript as nothing", func() {
		Expect(r.Transcript(nil)).To(BeEmpty())
	})
})
