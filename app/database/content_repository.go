package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/lysyi3m/content-comb/app/content"
)

const savepoint = "save_item"

var contentColumns = []string{
	"id", "source", "source_id", "COALESCE(title, '')", "COALESCE(body, '')", "COALESCE(summary, '')",
	"url", "published_at", "collected_at", "likes", "shares", "comments",
	"COALESCE(author_name, '')", "COALESCE(author_url, '')", "COALESCE(author_image_url, '')",
}

var (
	_ ContentSaver  = (*ContentRepository)(nil)
	_ ContentReader = (*ContentRepository)(nil)
)

// ContentRepository handles database operations for canonical content
type ContentRepository struct {
	db  *DB
	now func() time.Time
}

func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db, now: time.Now}
}

// SaveAll persists a batch with one transaction per source. Records already
// stored under the same (source, source_id) are left untouched. An item that
// fails to insert is rolled back to its savepoint and skipped.
func (r *ContentRepository) SaveAll(ctx context.Context, batch content.IngestionBatch) (content.SaveSummary, error) {
	summary := content.NewSaveSummary()

	for _, source := range content.Sources() {
		items := batch.Get(source)
		if len(items) == 0 {
			continue
		}

		saved := 0
		err := r.db.InTx(ctx, func(tx *sql.Tx) error {
			saved = 0
			for _, item := range items {
				if err := ctx.Err(); err != nil {
					return err
				}

				if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
					return fmt.Errorf("failed to create savepoint: %w", err)
				}

				inserted, err := r.saveItem(ctx, tx, source, item)
				if err != nil {
					slog.Warn("Skipping content item", "source", source, "source_id", item.SourceID, "error", err)
					if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
						return fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
					}
					continue
				}

				if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
					return fmt.Errorf("failed to release savepoint: %w", err)
				}
				if inserted {
					saved++
				}
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("failed to save %s content: %w", source, err)
		}

		summary.Counts[source] = saved
		summary.Total += saved
		slog.Info("Saved content", "source", source, "new", saved, "received", len(items))
	}

	summary.Timestamp = r.now().UTC()
	return summary, nil
}

func (r *ContentRepository) saveItem(ctx context.Context, tx *sql.Tx, source content.Source, item content.Content) (bool, error) {
	if item.SourceID == "" {
		item.SourceID = item.URL
	}
	if item.SourceID == "" {
		return false, errors.New("item has neither source id nor url")
	}

	query, args, err := r.db.builder().
		Select("id").
		From("content").
		Where(sq.Eq{"source": string(source), "source_id": item.SourceID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build lookup: %w", err)
	}

	var existingID string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&existingID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up existing content: %w", err)
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CollectedAt.IsZero() {
		item.CollectedAt = r.now()
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = item.CollectedAt
	}

	query, args, err = r.db.builder().
		Insert("content").
		Columns(
			"id", "source", "source_id", "title", "body", "summary", "url",
			"published_at", "published_date", "collected_at", "likes", "shares", "comments",
			"author_name", "author_url", "author_image_url",
		).
		Values(
			item.ID, string(source), item.SourceID, nullString(item.Title), nullString(item.Body), nullString(item.Summary), item.URL,
			item.PublishedAt.UTC(), publishedDate(item.PublishedAt), item.CollectedAt.UTC(),
			nullable(item.Likes), nullable(item.Shares), nullable(item.Comments),
			nullString(item.AuthorName), nullString(item.AuthorURL), nullString(item.AuthorImageURL),
		).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to insert content: %w", err)
	}

	return true, nil
}

// RecentContent returns content ordered by publish time, newest first.
func (r *ContentRepository) RecentContent(ctx context.Context, q Query) ([]content.Content, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultContentLimit
	}

	builder := r.db.builder().
		Select(contentColumns...).
		From("content").
		OrderBy("published_at DESC", "collected_at DESC").
		Limit(uint64(limit))

	if q.Source != "" {
		builder = builder.Where(sq.Eq{"source": string(q.Source)})
	}
	if q.Day != nil {
		builder = builder.Where(sq.Eq{"published_date": publishedDate(*q.Day)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build content query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent content: %w", err)
	}
	defer rows.Close()

	var items []content.Content
	for rows.Next() {
		var (
			item                    content.Content
			source                  string
			likes, shares, comments sql.NullInt64
		)
		err := rows.Scan(
			&item.ID, &source, &item.SourceID, &item.Title, &item.Body, &item.Summary,
			&item.URL, &item.PublishedAt, &item.CollectedAt, &likes, &shares, &comments,
			&item.AuthorName, &item.AuthorURL, &item.AuthorImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}

		item.Source = content.Source(source)
		item.PublishedAt = item.PublishedAt.UTC()
		item.CollectedAt = item.CollectedAt.UTC()
		item.Likes = nullInt64(likes)
		item.Shares = nullInt64(shares)
		item.Comments = nullInt64(comments)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating content rows: %w", err)
	}

	return items, nil
}

// AvailableDates lists publish days with their item counts, most recent first.
func (r *ContentRepository) AvailableDates(ctx context.Context, limit int) ([]DateCount, error) {
	if limit <= 0 {
		limit = DefaultDatesLimit
	}

	query, args, err := r.db.builder().
		Select("published_date", "COUNT(*)").
		From("content").
		GroupBy("published_date").
		OrderBy("published_date DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build dates query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get available dates: %w", err)
	}
	defer rows.Close()

	dates := []DateCount{}
	for rows.Next() {
		var d DateCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan date row: %w", err)
		}
		dates = append(dates, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating date rows: %w", err)
	}

	return dates, nil
}

func (r *ContentRepository) Categories(ctx context.Context) ([]content.Category, error) {
	query, args, err := r.db.builder().
		Select("id", "name", "COALESCE(description, '')").
		From("categories").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build categories query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	categories := []content.Category{}
	for rows.Next() {
		var c content.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// Count returns the total number of stored content rows
func (r *ContentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get content count: %w", err)
	}
	return count, nil
}

func nullable(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return content.Int64(v.Int64)
}
