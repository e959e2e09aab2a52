package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BlogService defines blog-related operations.
type BlogService interface {
	// GenerateAndPublish turns a prompt into a stored blog post and
	// returns the new post's id. It spends one credit up front and
	// refunds it if a later step fails.
	GenerateAndPublish(ctx context.Context, userID, prompt string) (int64, error)
	GetBlog(ctx context.Context, id int64) (*model.Blog, error)
	ListBlogs(ctx context.Context) ([]model.Blog, error)
}

type blogService struct {
	userRepo       repository.UserRepository
	blogRepo       repository.BlogRepository
	generator      Generator
	uploader       Uploader
	genTimeout     time.Duration
	storageTimeout time.Duration
	logger         zerolog.Logger
}

// NewBlogService creates a new BlogService.
func NewBlogService(
	userRepo repository.UserRepository,
	blogRepo repository.BlogRepository,
	generator Generator,
	uploader Uploader,
	genTimeout time.Duration,
	storageTimeout time.Duration,
	logger zerolog.Logger,
) BlogService {
	return &blogService{
		userRepo:       userRepo,
		blogRepo:       blogRepo,
		generator:      generator,
		uploader:       uploader,
		genTimeout:     genTimeout,
		storageTimeout: storageTimeout,
		logger:         logger.With().Str("service", "BlogService").Logger(),
	}
}

// GenerateAndPublish runs the generation workflow in a fixed order:
// spend a credit, generate text and image concurrently, upload the
// image, insert the blog row. The credit spend is the commit point; any
// later failure triggers a best-effort refund.
func (s *blogService) GenerateAndPublish(ctx context.Context, userID, prompt string) (int64, error) {
	if strings.TrimSpace(prompt) == "" {
		return 0, ErrEmptyPrompt
	}

	if err := s.userRepo.SpendCredit(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return 0, ErrInsufficientCredits
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to spend credit")
		return 0, fmt.Errorf("spending credit: %w", err)
	}

	blogID, err := s.generateAndStore(ctx, userID, prompt)
	if err != nil {
		// The credit was already spent; give it back. If the refund
		// itself fails the user support path is the log line below.
		if refundErr := s.userRepo.AddCredits(context.WithoutCancel(ctx), userID, 1); refundErr != nil {
			s.logger.Error().Err(refundErr).Str("user_id", userID).Msg("Failed to refund credit after workflow failure")
		}
		return 0, err
	}
	return blogID, nil
}

func (s *blogService) generateAndStore(ctx context.Context, userID, prompt string) (int64, error) {
	// Text and image generation are independent; issue both at once.
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	var content string
	var imageData []byte
	g, gctx := errgroup.WithContext(genCtx)
	g.Go(func() error {
		text, err := s.generator.GenerateText(gctx, prompt)
		if err != nil {
			return fmt.Errorf("generating text: %w", err)
		}
		content = text
		return nil
	})
	g.Go(func() error {
		data, err := s.generator.GenerateImage(gctx, prompt)
		if err != nil {
			return fmt.Errorf("generating image: %w", err)
		}
		imageData = data
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Generation failed")
		return 0, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	content = normalizeMarkdown(content)
	if content == "" {
		return 0, ErrGeneration
	}

	key := fmt.Sprintf("blog-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	upCtx, cancelUp := context.WithTimeout(ctx, s.storageTimeout)
	defer cancelUp()
	imageURL, err := s.uploader.Upload(upCtx, key, imageData, "image/png")
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("key", key).Msg("Image upload failed")
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	blog := &model.Blog{
		Title:    prompt,
		Content:  content,
		ImageURL: imageURL,
		AuthorID: userID,
	}
	created, err := s.blogRepo.CreateBlog(ctx, blog)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to insert blog")
		return 0, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return created.ID, nil
}

func (s *blogService) GetBlog(ctx context.Context, id int64) (*model.Blog, error) {
	blog, err := s.blogRepo.GetBlogByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("blog_id", id).Msg("Failed to fetch blog")
		return nil, err
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}

func (s *blogService) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	blogs, err := s.blogRepo.ListBlogs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list blogs")
		return nil, err
	}
	return blogs, nil
}

// normalizeMarkdown strips a wrapping code fence and a leading language
// tag. The model is prompted for raw markdown but sometimes wraps the
// whole post in ```markdown ... ``` anyway.
func normalizeMarkdown(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		// A bare language tag like "markdown" or "md" sits on the fence line.
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t") {
			trimmed = trimmed[idx+1:]
		}
	} else {
		return strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
