package servecmder

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papercomputeco/sous/pkg/config"
	"github.com/papercomputeco/sous/pkg/recipes"
	"github.com/papercomputeco/sous/server"
)

const book = `
[[recipe]]
name = "Guacamole"
ingredients = ["avocados", "lime", "onion"]
steps = ["Mash everything together."]
`

var _ = Describe("Serve Command", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		log    *zap.Logger
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
		log = zap.NewNop()
	})

	Describe("newAnswerer", func() {
		It("serves the sample book by default", func() {
			answerer, closeFn, err := newAnswerer(ctx, config.ServerConfig{}, log)
			Expect(err).NotTo(HaveOccurred())
			defer closeFn()

			answer, _, err := answerer.Answer(ctx, "How do I poach eggs?", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(ContainSubstring("Poached Eggs"))
		})

		It("serves a book file with the vector index and follows edits", func() {
			path := filepath.Join(GinkgoT().TempDir(), "book.toml")
			Expect(os.WriteFile(path, []byte(book), 0o644)).To(Succeed())

			answerer, closeFn, err := newAnswerer(ctx, config.ServerConfig{Recipes: path, Vector: true}, log)
			Expect(err).NotTo(HaveOccurred())
			defer closeFn()

			answer, sources, err := answerer.Answer(ctx, "avocados", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(ContainSubstring("Guacamole"))
			Expect(sources).To(HaveLen(1))

			Expect(os.WriteFile(path, []byte(book+`
[[recipe]]
name = "Salsa Verde"
ingredients = ["tomatillos", "lime"]
steps = ["Blend."]
`), 0o644)).To(Succeed())

			Eventually(func() string {
				answer, _, _ := answerer.Answer(ctx, "tomatillos", 3)
				return answer
			}, 5*time.Second, 50*time.Millisecond).Should(ContainSubstring("Salsa Verde"))
		})

		It("stops following edits before closing the index", func() {
			core, logs := observer.New(zap.InfoLevel)
			path := filepath.Join(GinkgoT().TempDir(), "book.toml")
			Expect(os.WriteFile(path, []byte(book), 0o644)).To(Succeed())

			_, closeFn, err := newAnswerer(ctx, config.ServerConfig{Recipes: path, Vector: true}, zap.New(core))
			Expect(err).NotTo(HaveOccurred())
			Expect(closeFn()).To(Succeed())

			Expect(os.WriteFile(path, []byte(book+"\n# edited\n"), 0o644)).To(Succeed())

			Consistently(func() int {
				return logs.FilterMessage("recipe book reloaded").Len()
			}, 300*time.Millisecond, 50*time.Millisecond).Should(BeZero())
		})

		It("fails on a missing book", func() {
			_, _, err := newAnswerer(ctx, config.ServerConfig{Recipes: "/nonexistent/book.toml"}, log)
			Expect(err).To(HaveOccurred())
		})

		It("relays to an upstream API", func() {
			assistant := recipes.NewAssistant(recipes.NewKeywordIndex(recipes.SampleBook().Recipes), nil)
			origin, err := server.New(server.Config{}, assistant, log)
			Expect(err).NotTo(HaveOccurred())
			defer origin.Close()
			ts := httptest.NewServer(origin.Handler())
			defer ts.Close()

			answerer, closeFn, err := newAnswerer(ctx, config.ServerConfig{Upstream: ts.URL}, log)
			Expect(err).NotTo(HaveOccurred())
			defer closeFn()

			_, ok := answerer.(*server.Upstream)
			Expect(ok).To(BeTrue())

			answer, _, err := answerer.Answer(ctx, "pancakes", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer).To(ContainSubstring("Buttermilk Pancakes"))
		})
	})

	It("lets flags override the config file", func() {
		cmd := NewServeCmd()
		Expect(cmd.ParseFlags([]string{"--listen", ":9000", "--vector"})).To(Succeed())

		cfg := config.Default()
		cfg.Server.DB = "/var/lib/sous/feedback.db"
		cmder := &serveCommander{listen: ":9000", vector: true}
		cmder.apply(cmd, cfg)

		Expect(cfg.Server.Listen).To(Equal(":9000"))
		Expect(cfg.Server.Vector).To(BeTrue())
		Expect(cfg.Server.DB).To(Equal("/var/lib/sous/feedback.db"))
	})
})
