package feedback_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sous/pkg/feedback"
)

// storeBehaviour runs the Store contract against any implementation.
func storeBehaviour(newStore func() feedback.Store) {
	var (
		store feedback.Store
		ctx   context.Context
		now   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Unix(1_700_000_000, 0)
		store = newStore()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("queries", func() {
		It("stores and retrieves a query", func() {
			q := &feedback.Query{
				ID:           "q-1",
				Question:     "How do I poach an egg?",
				Answer:       "Gently.",
				SourceCount:  2,
				ResponseTime: 1500 * time.Millisecond,
				CreatedAt:    now,
			}
			Expect(store.PutQuery(ctx, q)).To(Succeed())

			got, err := store.GetQuery(ctx, "q-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Question).To(Equal(q.Question))
			Expect(got.Answer).To(Equal(q.Answer))
			Expect(got.SourceCount).To(Equal(2))
			Expect(got.ResponseTime).To(Equal(1500 * time.Millisecond))
			Expect(got.CreatedAt.Equal(now)).To(BeTrue())
		})

		It("replaces a query with the same ID", func() {
			Expect(store.PutQuery(ctx, &feedback.Query{ID: "q-1", Answer: "first", CreatedAt: now})).To(Succeed())
			Expect(store.PutQuery(ctx, &feedback.Query{ID: "q-1", Answer: "second", CreatedAt: now})).To(Succeed())

			got, err := store.GetQuery(ctx, "q-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Answer).To(Equal("second"))
		})

		It("returns ErrNotFound for an unknown query", func() {
			_, err := store.GetQuery(ctx, "missing")
			Expect(err).To(MatchError(feedback.ErrNotFound{ID: "missing"}))
		})
	})

	Describe("entries", func() {
		It("starts empty", func() {
			entries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		It("lists entries oldest first", func() {
			Expect(store.Put(ctx, &feedback.Entry{QueryID: "q-1", Rating: 5, Comment: "great", CreatedAt: now})).To(Succeed())
			Expect(store.Put(ctx, &feedback.Entry{QueryID: "q-2", Rating: 2, CreatedAt: now.Add(time.Second)})).To(Succeed())
			Expect(store.Put(ctx, &feedback.Entry{QueryID: "q-1", Rating: 4, CreatedAt: now.Add(2 * time.Second)})).To(Succeed())

			entries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Comment).To(Equal("great"))
			Expect(entries[1].QueryID).To(Equal("q-2"))
			Expect(entries[2].Rating).To(Equal(4))
		})

		It("filters by query", func() {
			Expect(store.Put(ctx, &feedback.Entry{QueryID: "q-1", Rating: 5, CreatedAt: now})).To(Succeed())
			Expect(store.Put(ctx, &feedback.Entry{QueryID: "q-2", Rating: 1, CreatedAt: now})).To(Succeed())

			entries, err := store.ListByQuery(ctx, "q-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Rating).To(Equal(1))
		})

		It("does not alias stored entries", func() {
			e := &feedback.Entry{QueryID: "q-1", Rating: 3, CreatedAt: now}
			Expect(store.Put(ctx, e)).To(Succeed())
			e.Rating = 1

			entries, err := store.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Rating).To(Equal(3))
		})
	})
}

var _ = Describe("MemoryStore", func() {
	storeBehaviour(func() feedback.Store { return feedback.NewMemoryStore() })
})

var _ = Describe("SQLiteStore", func() {
	storeBehaviour(func() feedback.Store {
		s, err := feedback.NewSQLiteStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a file database", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "feedback.db")

		s, err := feedback.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps entries across reopen", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "feedback.db")

		s, err := feedback.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Put(ctx, &feedback.Entry{QueryID: "q-1", Rating: 5, CreatedAt: time.Now()})).To(Succeed())
		Expect(s.Close()).To(Succeed())

		s, err = feedback.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		entries, err := s.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})
