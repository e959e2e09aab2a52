package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type fakeUserRepo struct {
	credits     int
	spendCalls  int
	refundCalls int
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *model.User) error { return nil }

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return &model.User{UserID: id, Email: "test@example.com", Credits: f.credits}, nil
}

func (f *fakeUserRepo) SpendCredit(ctx context.Context, userID string) error {
	f.spendCalls++
	if f.credits <= 0 {
		return repository.ErrInsufficientCredits
	}
	f.credits--
	return nil
}

func (f *fakeUserRepo) AddCredits(ctx context.Context, userID string, n int) error {
	f.refundCalls++
	f.credits += n
	return nil
}

func (f *fakeUserRepo) UpdateStripeIdentifiers(ctx context.Context, userID, customerID, paymentIntentID string) error {
	return nil
}

type fakeGenerator struct {
	text      string
	textErr   error
	image     []byte
	imageErr  error
	textCalls int
	imgCalls  int
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.textCalls++
	return f.text, f.textErr
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	f.imgCalls++
	return f.image, f.imageErr
}

type fakeUploader struct {
	url     string
	err     error
	calls   int
	lastKey string
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.calls++
	f.lastKey = key
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeBlogRepo struct {
	blogs  []model.Blog
	err    error
	nextID int64
}

func (f *fakeBlogRepo) CreateBlog(ctx context.Context, b *model.Blog) (*model.Blog, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	b.ID = f.nextID
	b.CreatedAt = time.Now()
	f.blogs = append(f.blogs, *b)
	return b, nil
}

func (f *fakeBlogRepo) GetBlogByID(ctx context.Context, id int64) (*model.Blog, error) {
	for i := range f.blogs {
		if f.blogs[i].ID == id {
			return &f.blogs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeBlogRepo) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	return f.blogs, nil
}

func newTestBlogService(users *fakeUserRepo, blogs *fakeBlogRepo, gen *fakeGenerator, up *fakeUploader) BlogService {
	return NewBlogService(users, blogs, gen, up, 5*time.Second, 5*time.Second, zerolog.Nop())
}

func TestGenerateAndPublishEmptyPrompt(t *testing.T) {
	users := &fakeUserRepo{credits: 3}
	gen := &fakeGenerator{}
	up := &fakeUploader{}
	blogs := &fakeBlogRepo{}
	svc := newTestBlogService(users, blogs, gen, up)

	_, err := svc.GenerateAndPublish(context.Background(), "user-1", "   ")
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if users.spendCalls != 0 || gen.textCalls != 0 || gen.imgCalls != 0 || up.calls != 0 || len(blogs.blogs) != 0 {
		t.Fatal("expected no collaborator calls for an empty prompt")
	}
}

func TestGenerateAndPublishInsufficientCredits(t *testing.T) {
	users := &fakeUserRepo{credits: 0}
	gen := &fakeGenerator{text: "# Post", image: []byte("png")}
	up := &fakeUploader{url: "https://example.com/img"}
	blogs := &fakeBlogRepo{}
	svc := newTestBlogService(users, blogs, gen, up)

	_, err := svc.GenerateAndPublish(context.Background(), "user-1", "urban gardening")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if users.credits != 0 {
		t.Fatalf("expected credits unchanged at 0, got %d", users.credits)
	}
	if gen.textCalls != 0 || gen.imgCalls != 0 || up.calls != 0 || len(blogs.blogs) != 0 {
		t.Fatal("expected no generation, upload or insert without credits")
	}
}

func TestGenerateAndPublishSuccess(t *testing.T) {
	users := &fakeUserRepo{credits: 3}
	gen := &fakeGenerator{
		text:  "```markdown\n# Urban Gardening\n\nGrow things.\n```",
		image: []byte("fake-png-bytes"),
	}
	up := &fakeUploader{url: "https://proj.supabase.co/storage/v1/object/public/ai-blog-images/blog-1"}
	blogs := &fakeBlogRepo{}
	svc := newTestBlogService(users, blogs, gen, up)

	blogID, err := svc.GenerateAndPublish(context.Background(), "user-1", "urban gardening")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blogID != 1 {
		t.Fatalf("expected blog id 1, got %d", blogID)
	}
	if users.credits != 2 {
		t.Fatalf("expected credits 2 after one spend, got %d", users.credits)
	}
	if len(blogs.blogs) != 1 {
		t.Fatalf("expected exactly one blog row, got %d", len(blogs.blogs))
	}
	b := blogs.blogs[0]
	if b.Title != "urban gardening" {
		t.Fatalf("expected title to be the prompt, got %q", b.Title)
	}
	if b.Content != "# Urban Gardening\n\nGrow things." {
		t.Fatalf("expected fences stripped, got %q", b.Content)
	}
	if b.ImageURL != up.url {
		t.Fatalf("expected image url %q, got %q", up.url, b.ImageURL)
	}
	if b.AuthorID != "user-1" {
		t.Fatalf("expected author user-1, got %q", b.AuthorID)
	}
	if gen.textCalls != 1 || gen.imgCalls != 1 || up.calls != 1 {
		t.Fatalf("expected one call each, got text=%d img=%d upload=%d", gen.textCalls, gen.imgCalls, up.calls)
	}
}

func TestGenerateAndPublishImageFailureRefundsCredit(t *testing.T) {
	users := &fakeUserRepo{credits: 3}
	gen := &fakeGenerator{text: "# Post", imageErr: errors.New("image backend down")}
	up := &fakeUploader{}
	blogs := &fakeBlogRepo{}
	svc := newTestBlogService(users, blogs, gen, up)

	_, err := svc.GenerateAndPublish(context.Background(), "user-1", "urban gardening")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if users.credits != 3 {
		t.Fatalf("expected spent credit refunded back to 3, got %d", users.credits)
	}
	if users.refundCalls != 1 {
		t.Fatalf("expected exactly one refund, got %d", users.refundCalls)
	}
	if up.calls != 0 || len(blogs.blogs) != 0 {
		t.Fatal("expected no upload or insert after generation failure")
	}
}

func TestGenerateAndPublishStorageFailureRefundsCredit(t *testing.T) {
	users := &fakeUserRepo{credits: 1}
	gen := &fakeGenerator{text: "# Post", image: []byte("png")}
	up := &fakeUploader{err: errors.New("storage down")}
	blogs := &fakeBlogRepo{}
	svc := newTestBlogService(users, blogs, gen, up)

	_, err := svc.GenerateAndPublish(context.Background(), "user-1", "urban gardening")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if users.credits != 1 {
		t.Fatalf("expected credit refunded back to 1, got %d", users.credits)
	}
	if len(blogs.blogs) != 0 {
		t.Fatal("expected no blog row after storage failure")
	}
}

func TestGenerateAndPublishPersistFailureRefundsCredit(t *testing.T) {
	users := &fakeUserRepo{credits: 2}
	gen := &fakeGenerator{text: "# Post", image: []byte("png")}
	up := &fakeUploader{url: "https://example.com/img"}
	blogs := &fakeBlogRepo{err: errors.New("db down")}
	svc := newTestBlogService(users, blogs, gen, up)

	_, err := svc.GenerateAndPublish(context.Background(), "user-1", "urban gardening")
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if users.credits != 2 {
		t.Fatalf("expected credit refunded back to 2, got %d", users.credits)
	}
}

func TestNormalizeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "# Title\n\nBody", "# Title\n\nBody"},
		{"fenced with language tag", "```markdown\n# Title\n\nBody\n```", "# Title\n\nBody"},
		{"fenced with md tag", "```md\n# Title\n```", "# Title"},
		{"fenced without tag", "```\n# Title\n```", "# Title"},
		{"surrounding whitespace", "\n\n# Title\n", "# Title"},
		{"single line fence", "```# Title```", "# Title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeMarkdown(tt.in); got != tt.want {
				t.Fatalf("normalizeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
