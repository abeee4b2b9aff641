package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/internal/shared"
	"newsletter-backend/internal/shared/authz"
	"newsletter-backend/pkg/logger"
)

const maxCoverImageSize = 5 << 20 // 5MB

// ObjectStorage là phần upload mà post service cần từ MinIO
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type postService struct {
	repo             post.Repository
	publicationRepo  publication.Repository
	subscriptionRepo subscription.Repository
	storage          ObjectStorage
	asynqClient      *asynq.Client
}

func NewPostService(
	repo post.Repository,
	publicationRepo publication.Repository,
	subscriptionRepo subscription.Repository,
	storage ObjectStorage,
	asynqClient *asynq.Client,
) post.Service {
	return &postService{
		repo:             repo,
		publicationRepo:  publicationRepo,
		subscriptionRepo: subscriptionRepo,
		storage:          storage,
		asynqClient:      asynqClient,
	}
}

func (s *postService) Create(ctx context.Context, principalID uuid.UUID, req *post.CreatePostRequest) (*post.Post, error) {
	publicationID, err := uuid.Parse(req.PublicationID)
	if err != nil {
		return nil, publication.ErrPublicationNotFound
	}

	pub, err := s.publicationRepo.FindByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAct(principalID, pub.OwnerID) {
		return nil, post.ErrForbidden
	}

	p := &post.Post{
		PublicationID: pub.ID,
		AuthorID:      principalID,
		Title:         req.Title,
		Body:          req.Body,
		IsPaid:        req.IsPaid,
	}

	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, id)
}

func (s *postService) Get(ctx context.Context, principalID, id uuid.UUID) (*post.Post, bool, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	owners := []uuid.UUID{p.AuthorID}
	if pub, err := s.publicationRepo.FindByID(ctx, p.PublicationID); err == nil {
		owners = append(owners, pub.OwnerID)
	}
	isOwner := authz.CanAct(principalID, owners...)

	// Drafts không tồn tại với người ngoài
	if !p.IsPublished && !isOwner {
		return nil, false, post.ErrPostNotFound
	}

	if !p.IsPaid || isOwner {
		return p, true, nil
	}

	// Paid post: full body chỉ cho subscriber đã trả phí
	if principalID != uuid.Nil {
		sub, err := s.subscriptionRepo.FindByUserAndPublication(ctx, principalID, p.PublicationID)
		if err == nil && sub.Tier == subscription.TierPaid {
			return p, true, nil
		}
	}
	return p, false, nil
}

func (s *postService) Update(ctx context.Context, principalID, id uuid.UUID, req *post.UpdatePostRequest) (*post.Post, error) {
	p, err := s.authorize(ctx, principalID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Body != nil {
		p.Body = *req.Body
	}
	if req.IsPaid != nil {
		p.IsPaid = *req.IsPaid
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *postService) Delete(ctx context.Context, principalID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, principalID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best-effort: cover objects còn sót chỉ tốn storage, không ảnh hưởng data
	if err := s.storage.DeleteByPrefix(ctx, fmt.Sprintf("posts/%s/", id)); err != nil {
		logger.Warn("Failed to delete post cover objects", map[string]interface{}{
			"post_id": id.String(),
		})
	}
	return nil
}

// SetPublished chuyển trạng thái publish của bài viết.
//
// Transition rules:
//   - publish while never published: is_published=true, published_at stamped now
//   - publish while already stamped: is_published=true, published_at untouched
//   - unpublish: is_published=false, published_at untouched
//
// Subscriber fan-out fires only on the very first publish.
func (s *postService) SetPublished(ctx context.Context, principalID, id uuid.UUID, publish bool) (*post.Post, error) {
	p, err := s.authorize(ctx, principalID, id)
	if err != nil {
		return nil, err
	}

	firstPublish := publish && p.PublishedAt == nil

	updated, err := s.repo.SetPublished(ctx, id, publish)
	if err != nil {
		return nil, err
	}

	if firstPublish {
		s.enqueuePostPublished(updated.ID)
	}

	return updated, nil
}

func (s *postService) ListByPublication(ctx context.Context, principalID, publicationID uuid.UUID, includeDrafts bool, limit, offset int) ([]*post.Post, int64, error) {
	pub, err := s.publicationRepo.FindByID(ctx, publicationID)
	if err != nil {
		return nil, 0, err
	}

	// Drafts chỉ owner thấy; người khác luôn nhận published-only
	if includeDrafts && !authz.CanAct(principalID, pub.OwnerID) {
		includeDrafts = false
	}
	return s.repo.ListByPublication(ctx, publicationID, !includeDrafts, limit, offset)
}

func (s *postService) UploadCoverImage(ctx context.Context, principalID, id uuid.UUID, filename string, size int64, reader io.Reader) (*post.Post, error) {
	p, err := s.authorize(ctx, principalID, id)
	if err != nil {
		return nil, err
	}

	if size <= 0 || size > maxCoverImageSize {
		return nil, post.ErrInvalidUpload
	}

	contentType, ok := coverContentType(filename)
	if !ok {
		return nil, post.ErrInvalidUpload
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxCoverImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxCoverImageSize {
		return nil, post.ErrInvalidUpload
	}

	key := fmt.Sprintf("posts/%s/cover_original%s", p.ID, strings.ToLower(filepath.Ext(filename)))
	url, err := s.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return nil, err
	}

	// Original URL ngay lập tức; worker thay bằng resized hero variant sau.
	if err := s.repo.SetCoverImage(ctx, id, url); err != nil {
		return nil, err
	}
	s.enqueueCoverProcessing(p.ID, key)

	return s.repo.FindByID(ctx, id)
}

// authorize tải post và kiểm tra quyền: tác giả hoặc chủ publication.
// Not-found wins over forbidden: the ownership set cannot be known without
// the row, so a missing id is always a 404 regardless of who asks.
func (s *postService) authorize(ctx context.Context, principalID, id uuid.UUID) (*post.Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owners := []uuid.UUID{p.AuthorID}
	if pub, err := s.publicationRepo.FindByID(ctx, p.PublicationID); err == nil {
		owners = append(owners, pub.OwnerID)
	}

	if !authz.CanAct(principalID, owners...) {
		return nil, post.ErrForbidden
	}
	return p, nil
}

func (s *postService) enqueuePostPublished(postID uuid.UUID) {
	payload, err := json.Marshal(shared.PostPublishedPayload{PostID: postID.String()})
	if err != nil {
		logger.Error("Failed to marshal post published payload", err)
		return
	}

	task := asynq.NewTask(shared.TypePostPublished, payload)
	info, err := s.asynqClient.Enqueue(task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(5),
	)
	if err != nil {
		logger.Error("Failed to enqueue post published task", err)
		return
	}

	logger.Info("📬 Post published task enqueued", map[string]interface{}{
		"post_id": postID.String(),
		"task_id": info.ID,
	})
}

func (s *postService) enqueueCoverProcessing(postID uuid.UUID, key string) {
	payload, err := json.Marshal(shared.ProcessCoverImagePayload{PostID: postID.String(), Key: key})
	if err != nil {
		logger.Error("Failed to marshal cover processing payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeProcessCoverImage, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueLow), asynq.MaxRetry(3)); err != nil {
		logger.Error("Failed to enqueue cover processing task", err)
	}
}

func coverContentType(filename string) (string, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".png":
		return "image/png", true
	default:
		return "", false
	}
}
