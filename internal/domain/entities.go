package domain

import "time"

// Post представляет запись поста в хранилище записей.
type Post struct {
	ID           int64
	AuthorID     int64
	Content      string
	Published    bool
	PublishedAt  *time.Time
	Deleted      bool
	Verified     bool
	VerifiedDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PendingModeration сообщает, ждёт ли пост проверки модерацией.
func (p Post) PendingModeration() bool {
	return !p.Verified && p.VerifiedDate == nil
}

// FailedModeration сообщает, что пост прошёл модерацию и был отклонён.
func (p Post) FailedModeration() bool {
	return !p.Verified && p.VerifiedDate != nil
}

// PostSummary — проекция поста для выдачи в ленте.
type PostSummary struct {
	ID          int64      `json:"id"`
	AuthorID    int64      `json:"authorId"`
	Content     string     `json:"content"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Verified    bool       `json:"verified"`
}

// SummaryFromPost строит проекцию для ленты из записи поста.
func SummaryFromPost(p Post) PostSummary {
	return PostSummary{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Content:     p.Content,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		Verified:    p.Verified,
	}
}
