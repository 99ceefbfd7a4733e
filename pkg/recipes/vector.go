package recipes

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// Dimensions of the hashed bag-of-words embedding.
const Dimensions = 256

// maxDistance is the L2 distance between two unit vectors with nothing in
// common, less float32 rounding slack. Matches at or beyond it are dropped.
var maxDistance = math.Sqrt2 - 1e-4

func init() {
	sqlite_vec.Auto()
}

// VectorBuilder builds an in-memory VectorIndex.
func VectorBuilder(recipes []Recipe) (Index, error) {
	return NewVectorIndex(context.Background(), ":memory:", recipes)
}

// VectorIndex ranks recipes by embedding distance using a sqlite-vec vec0 table.
type VectorIndex struct {
	db      *sql.DB
	recipes []Recipe
}

// NewVectorIndex embeds recipes into a vec0 table in the SQLite database at
// dbPath. Use ":memory:" for an in-memory index.
func NewVectorIndex(ctx context.Context, dbPath string, recipes []Recipe) (*VectorIndex, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open vector database: %w", err)
	}
	// Every connection to ":memory:" is a different database.
	db.SetMaxOpenConns(1)

	idx := &VectorIndex{db: db, recipes: recipes}
	if err := idx.load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *VectorIndex) load(ctx context.Context) error {
	stmts := []string{
		`DROP TABLE IF EXISTS recipe_embeddings`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE recipe_embeddings USING vec0(embedding float[%d])`, Dimensions),
	}
	for _, stmt := range stmts {
		if _, err := idx.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create vector table: %w", err)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for i, r := range idx.recipes {
		blob, err := sqlite_vec.SerializeFloat32(embed(r.Document()))
		if err != nil {
			return fmt.Errorf("serialize embedding for %q: %w", r.Name, err)
		}
		// rowid is the 1-based position in recipes
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_embeddings(rowid, embedding) VALUES (?, ?)`, i+1, blob,
		); err != nil {
			return fmt.Errorf("insert embedding for %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit embeddings: %w", err)
	}
	return nil
}

// Search implements Index.
func (idx *VectorIndex) Search(ctx context.Context, query string, k int) ([]Recipe, error) {
	if k <= 0 || len(idx.recipes) == 0 {
		return nil, nil
	}
	// vec0 caps k; there is never a reason to ask for more than the book holds.
	k = min(k, len(idx.recipes))

	vec := embed(query)
	if isZero(vec) {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(vec)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT rowid, distance
		FROM recipe_embeddings
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var out []Recipe
	for rows.Next() {
		var (
			rowid    int64
			distance float64
		)
		if err := rows.Scan(&rowid, &distance); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if distance >= maxDistance {
			continue
		}
		out = append(out, idx.recipes[rowid-1])
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return out, nil
}

// Len implements Index.
func (idx *VectorIndex) Len() int {
	return len(idx.recipes)
}

// Close implements Index.
func (idx *VectorIndex) Close() error {
	return idx.db.Close()
}

// embed hashes the tokens of text into a unit-length term-frequency vector.
func embed(text string) []float32 {
	vec := make([]float32, Dimensions)
	for _, t := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(t))
		vec[h.Sum32()%Dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
