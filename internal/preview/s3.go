package preview

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipcheck/internal/domain"
	"shipcheck/internal/repository"
	"shipcheck/internal/upload"
	"shipcheck/pkg/utils"
)

const keyPrefix = "previews/"

// S3Store uploads previews to object storage and links to them with
// presigned URLs. Release deletes the object.
type S3Store struct {
	repo repository.S3Repository
	ttl  time.Duration
	opt  Options
	proc *utils.ImageProcessor
	log  *zap.Logger
}

var _ upload.PreviewStore = (*S3Store)(nil)

func NewS3Store(repo repository.S3Repository, ttl time.Duration, opt Options, log *zap.Logger) *S3Store {
	return &S3Store{
		repo: repo,
		ttl:  ttl,
		opt:  opt,
		proc: utils.NewImageProcessor(log),
		log:  log,
	}
}

func (s *S3Store) Create(ctx context.Context, c domain.Candidate) (domain.Preview, error) {
	data, ct, err := render(s.proc, s.opt, c.Content, c.MediaType)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("render preview: %w", err)
	}

	id := uuid.New().String()
	key := keyPrefix + id
	if err := s.repo.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), ct); err != nil {
		return domain.Preview{}, fmt.Errorf("upload preview: %w", err)
	}

	url, err := s.repo.PresignURL(ctx, key, s.ttl)
	if err != nil {
		if derr := s.repo.DeleteFile(ctx, key); derr != nil {
			s.log.Warn("Failed to remove unlinked preview", zap.String("key", key), zap.Error(derr))
		}
		return domain.Preview{}, fmt.Errorf("presign preview: %w", err)
	}

	return domain.Preview{ID: id, URL: url}, nil
}

func (s *S3Store) Release(ctx context.Context, p domain.Preview) error {
	if p.ID == "" || path.Base(p.ID) != p.ID {
		return fmt.Errorf("%w: %q", ErrUnknown, p.ID)
	}
	return s.repo.DeleteFile(ctx, keyPrefix+p.ID)
}
