// Package store archives finished analyses in Postgres with pgvector columns.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/seogap/internal/models"
	"github.com/xhad/seogap/pkg/processor"
	"go.uber.org/zap"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,40}$`)

type ArchiveConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	Logger     *zap.Logger
}

// Archive is a write-only record of analyses. Responses never depend on it.
type Archive struct {
	config ArchiveConfig
	pool   *pgxpool.Pool
	log    *zap.Logger
}

func NewWithConfig(ctx context.Context, config ArchiveConfig) (*Archive, error) {
	if config.TableName == "" {
		config.TableName = "seo_analyses"
	}
	if !tableNamePattern.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid table name %q", config.TableName)
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &Archive{
		config: config,
		pool:   pool,
		log:    config.Logger,
	}

	if err := a.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return a, nil
}

func (a *Archive) analysesTable() string    { return a.config.TableName + "_analyses" }
func (a *Archive) comparisonsTable() string { return a.config.TableName + "_comparisons" }

func (a *Archive) initialize(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := a.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createAnalyses := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			target_url TEXT NOT NULL,
			target_title TEXT,
			keyword TEXT,
			keyword_expansion TEXT,
			target_error TEXT,
			target_embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, a.analysesTable(), a.config.VectorDim)

	if _, err := a.pool.Exec(ctx, createAnalyses); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createComparisons := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			analysis_id TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			similarity DOUBLE PRECISION,
			suggestion TEXT,
			error TEXT,
			embedding vector(%d),
			PRIMARY KEY (analysis_id, position)
		)`, a.comparisonsTable(), a.analysesTable(), a.config.VectorDim)

	if _, err := a.pool.Exec(ctx, createComparisons); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Tables created before titles were archived
	migrations := []string{
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS target_title TEXT`, a.analysesTable()),
		fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS title TEXT`, a.comparisonsTable()),
	}
	for _, m := range migrations {
		if _, err := a.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("failed to migrate table: %w", err)
		}
	}

	// Create vector index
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		a.comparisonsTable(), a.comparisonsTable())

	if _, err := a.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Record writes one analysis and its comparisons in a single transaction.
func (a *Archive) Record(ctx context.Context, resp *models.AnalysisResponse) error {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertAnalysis := fmt.Sprintf(`
		INSERT INTO %s (id, target_url, target_title, keyword, keyword_expansion, target_error, target_embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.analysesTable())

	_, err = tx.Exec(ctx, insertAnalysis,
		resp.ID,
		processor.SanitizeUTF8(resp.TargetURL),
		nullableText(resp.TargetTitle),
		processor.SanitizeUTF8(resp.Keyword),
		processor.SanitizeUTF8(resp.KeywordExpansion),
		nullableText(resp.TargetError),
		a.vectorArg(resp.TargetEmbedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	insertComparison := fmt.Sprintf(`
		INSERT INTO %s (analysis_id, position, url, title, similarity, suggestion, error, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.comparisonsTable())

	for i, r := range resp.Analysis {
		row := comparisonRow(r)
		_, err = tx.Exec(ctx, insertComparison,
			resp.ID,
			i,
			processor.SanitizeUTF8(r.URL),
			nullableText(r.Title),
			row.similarity,
			row.suggestion,
			row.errText,
			a.vectorArg(r.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert comparison %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.log.Debug("analysis archived", zap.String("analysis_id", resp.ID), zap.Int("comparisons", len(resp.Analysis)))
	return nil
}

// comparisonTitles returns the stored competitor titles of an analysis in request order.
// Failed or untitled competitors yield "".
func (a *Archive) comparisonTitles(ctx context.Context, analysisID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT coalesce(title, '') FROM %s WHERE analysis_id = $1 ORDER BY position`, a.comparisonsTable())

	rows, err := a.pool.Query(ctx, query, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// comparisonCount returns how many comparisons are stored for an analysis.
func (a *Archive) comparisonCount(ctx context.Context, analysisID string) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE analysis_id = $1`, a.comparisonsTable())

	var n int
	if err := a.pool.QueryRow(ctx, query, analysisID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count comparisons: %w", err)
	}
	return n, nil
}

func (a *Archive) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// vectorArg returns nil for vectors that do not fit the column.
func (a *Archive) vectorArg(v []float32) any {
	if len(v) == 0 || len(v) != a.config.VectorDim {
		return nil
	}
	return pgvector.NewVector(v)
}

type comparisonValues struct {
	similarity *float64
	suggestion *string
	errText    *string
}

func comparisonRow(r models.ComparisonResult) comparisonValues {
	if r.Failed() {
		return comparisonValues{errText: nullableText(r.Err.Error())}
	}
	sim := r.Similarity
	return comparisonValues{
		similarity: &sim,
		suggestion: nullableText(r.Suggestion),
	}
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	s = processor.SanitizeUTF8(s)
	return &s
}
