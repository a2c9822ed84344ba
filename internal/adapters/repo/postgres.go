package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"post-feed-service/internal/domain"
	"post-feed-service/internal/infra/metrics"
)

// Postgres реализует domain.PostRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.PostRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const postColumns = `id, author_id, content, published, published_at, deleted, verified, verified_date, created_at, updated_at`

func scanPost(row pgx.Row) (domain.Post, error) {
	var (
		post         domain.Post
		publishedAt  sql.NullTime
		verifiedDate sql.NullTime
	)
	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.Published,
		&publishedAt,
		&post.Deleted,
		&post.Verified,
		&verifiedDate,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	if verifiedDate.Valid {
		t := verifiedDate.Time
		post.VerifiedDate = &t
	}
	return post, nil
}

func (p *Postgres) queryPosts(ctx context.Context, operation, query string, args ...any) ([]domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", operation, "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// FindUnverifiedPosts возвращает до limit постов, ждущих модерации,
// от старых к новым.
func (p *Postgres) FindUnverifiedPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	posts, err := p.queryPosts(ctx, "find_unverified", `
SELECT `+postColumns+`
FROM posts
WHERE verified = false AND verified_date IS NULL
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("выборка постов на модерацию: %w", err)
	}
	return posts, nil
}

// FindOffendingPosts возвращает посты, отклонённые модерацией.
func (p *Postgres) FindOffendingPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := p.queryPosts(ctx, "find_offending", `
SELECT `+postColumns+`
FROM posts
WHERE verified = false AND verified_date IS NOT NULL
`)
	if err != nil {
		return nil, fmt.Errorf("выборка отклонённых постов: %w", err)
	}
	return posts, nil
}

// FindAllByIDs возвращает существующие посты по списку id одним запросом.
func (p *Postgres) FindAllByIDs(ctx context.Context, ids []int64) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	posts, err := p.queryPosts(ctx, "find_by_ids", `
SELECT `+postColumns+`
FROM posts
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, fmt.Errorf("выборка постов по id: %w", err)
	}
	return posts, nil
}

// SaveVerification записывает результат модерации поста.
func (p *Postgres) SaveVerification(ctx context.Context, postID int64, verified bool, verifiedDate time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE posts
SET verified = $2, verified_date = $3, updated_at = now()
WHERE id = $1
`, postID, verified, verifiedDate.UTC())
	metrics.ObserveNetworkRequest("postgres", "save_verification", "posts", start, err)
	if err != nil {
		return fmt.Errorf("сохранение результата модерации: %w", err)
	}
	return nil
}
