package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlogRepository persists generated blog posts.
type BlogRepository interface {
	CreateBlog(ctx context.Context, b *model.Blog) (*model.Blog, error)
	GetBlogByID(ctx context.Context, id int64) (*model.Blog, error)
	ListBlogs(ctx context.Context) ([]model.Blog, error)
}

type blogRepo struct {
	pool *pgxpool.Pool
}

// NewBlogRepo creates a new BlogRepository.
func NewBlogRepo(pool *pgxpool.Pool) BlogRepository {
	return &blogRepo{pool: pool}
}

func (r *blogRepo) CreateBlog(ctx context.Context, b *model.Blog) (*model.Blog, error) {
	const q = `INSERT INTO blogs (title, content, image_url, author_id)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, b.Title, b.Content, b.ImageURL, b.AuthorID).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting blog for user %s: %w", b.AuthorID, err)
	}
	return b, nil
}

func (r *blogRepo) GetBlogByID(ctx context.Context, id int64) (*model.Blog, error) {
	var b model.Blog
	const q = `SELECT id, title, content, image_url, author_id, created_at FROM blogs WHERE id=$1`
	row := r.pool.QueryRow(ctx, q, id)
	if err := row.Scan(&b.ID, &b.Title, &b.Content, &b.ImageURL, &b.AuthorID, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *blogRepo) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	const q = `SELECT id, title, content, image_url, author_id, created_at
               FROM blogs ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}
	defer rows.Close()

	var blogs []model.Blog
	for rows.Next() {
		var b model.Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.ImageURL, &b.AuthorID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning blog row: %w", err)
		}
		blogs = append(blogs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blogs, nil
}
