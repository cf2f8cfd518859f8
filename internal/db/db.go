package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/models"
)

const tablePrefix = "docqa_chunks_"

var unsafeIdentRe = regexp.MustCompile(`[^a-z0-9_]+`)

// Chunk is one row of a per-index table.
type Chunk struct {
	bun.BaseModel `bun:"table:docqa_chunks,alias:c"`
	Position      int             `bun:"position,pk"`
	SourceID      string          `bun:"source_id,notnull"`
	PageNumber    int             `bun:"page,notnull"`
	ChunkID       int             `bun:"chunk,notnull"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull"`
}

type matchRow struct {
	Position int     `bun:"position"`
	Score    float32 `bun:"score"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a pool with the configured driver: "pgdriver" (bun's own)
// or "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: database dsn is empty", models.ErrInvalidInput)
	}
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	case "", "pgdriver":
		return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))), nil
	}
	return nil, fmt.Errorf("%w: unknown database driver %q", models.ErrInvalidInput, cfg.Driver)
}

// InitDB enables pgvector.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: enabling pgvector: %w", models.ErrUnavailable, err)
	}
	return nil
}

// ChunkStore keeps one index in its own table, created on Add and dropped on
// Close, so sessions never see each other's chunks.
type ChunkStore struct {
	db    *bun.DB
	table string
}

// TableName derives a safe table identifier from an arbitrary key.
func TableName(key string) string {
	name := tablePrefix + unsafeIdentRe.ReplaceAllString(strings.ToLower(key), "_")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

func NewChunkStore(db *bun.DB, key string) *ChunkStore {
	return &ChunkStore{db: db, table: TableName(key)}
}

func (s *ChunkStore) Table() string { return s.table }

func (s *ChunkStore) Add(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}

	// The vector width is only known once the first embedding exists.
	_, err := s.db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS ? (position integer PRIMARY KEY, source_id text NOT NULL, page integer NOT NULL, chunk integer NOT NULL, content text NOT NULL, embedding vector(?) NOT NULL)",
		bun.Ident(s.table), len(vectors[0]))
	if err != nil {
		return classify(err)
	}

	rows := make([]Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = Chunk{
			Position:   i,
			SourceID:   c.SourceID,
			PageNumber: c.PageNumber,
			ChunkID:    c.ChunkID,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}
	if _, err := s.insertQuery(&rows).Exec(ctx); err != nil {
		return classify(err)
	}
	log.Debug().Str("table", s.table).Int("rows", len(rows)).Msg("Stored chunk vectors")
	return nil
}

func (s *ChunkStore) insertQuery(rows *[]Chunk) *bun.InsertQuery {
	return s.db.NewInsert().Model(rows).ModelTableExpr("?", bun.Ident(s.table))
}

// Query ranks by cosine distance with position as the tie-breaker.
func (s *ChunkStore) Query(ctx context.Context, vector []float32, k int) ([]index.Match, error) {
	var rows []matchRow
	if err := s.searchQuery(vector, k).Scan(ctx, &rows); err != nil {
		return nil, classify(err)
	}
	matches := make([]index.Match, len(rows))
	for i, r := range rows {
		matches[i] = index.Match{Position: r.Position, Score: r.Score}
	}
	return matches, nil
}

func (s *ChunkStore) searchQuery(vector []float32, k int) *bun.SelectQuery {
	v := pgvector.NewVector(vector)
	return s.db.NewSelect().
		TableExpr("? AS c", bun.Ident(s.table)).
		ColumnExpr("c.position").
		ColumnExpr("1 - (c.embedding <=> ?) AS score", v).
		OrderExpr("c.embedding <=> ?", v).
		OrderExpr("c.position ASC").
		Limit(k)
}

func (s *ChunkStore) Close() error {
	_, err := s.dropQuery().Exec(context.Background())
	if err != nil {
		return classify(err)
	}
	log.Debug().Str("table", s.table).Msg("Dropped chunk table")
	return nil
}

func (s *ChunkStore) dropQuery() *bun.DropTableQuery {
	return s.db.NewDropTable().Table(s.table).IfExists()
}

func classify(err error) error {
	return fmt.Errorf("%w: %w", models.ErrUnavailable, err)
}
