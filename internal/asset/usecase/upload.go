package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/storage"
)

var errAssetTooLarge = errors.New("asset exceeds max size")

type UploadInput struct {
	File        io.Reader
	FileName    string
	ContentType string
}

type UploadOutput struct {
	Asset entity.Asset
}

func (s *Usecase) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	ctx, span := s.startSpan(ctx, "Upload")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	fileName := path.Base(strings.TrimSpace(in.FileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, goerror.NewInvalidInput(nil, "file", "file name is required")
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if !s.allowlist.Allowed(ext) {
		return nil, goerror.NewInvalidInput(nil, "file", "file type is not allowed")
	}

	bucket := strings.TrimSpace(s.cfg.GetString("modules.asset.bucket"))
	maxSize := s.cfg.GetInt64("modules.asset.max_size_bytes")
	key := fmt.Sprintf("%d/%s.%s", clm.AccountID, s.uuid.Generate(), ext)

	reader := &maxBytesReader{r: in.File, max: maxSize}
	info, err := s.repoStorage.PutObject(ctx, bucket, key, reader, storage.PutOptions{
		Size:        -1,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"owner_id": strconv.FormatInt(clm.AccountID, 10)},
	})
	if err != nil {
		if errors.Is(err, errAssetTooLarge) {
			return nil, goerror.NewInvalidInput(errAssetTooLarge)
		}
		slog.ErrorContext(ctx, "failed to upload asset", "owner_id", clm.AccountID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	asset := entity.NewAsset{
		ID:          s.uid.Generate(),
		OwnerID:     clm.AccountID,
		Bucket:      bucket,
		Key:         key,
		FileName:    fileName,
		Extension:   ext,
		ContentType: in.ContentType,
		Size:        info.Size,
	}
	if err := s.repoDB.CreateAsset(ctx, asset); err != nil {
		slog.ErrorContext(ctx, "failed to repo create asset", "owner_id", clm.AccountID, "key", key, "error", err)
		// The blob is unreachable without its row.
		if delErr := s.repoStorage.DeleteObject(ctx, bucket, key); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove orphaned object", "key", key, "error", delErr)
		}
		return nil, goerror.NewServer(err)
	}

	return &UploadOutput{Asset: entity.Asset{
		ID:          asset.ID,
		OwnerID:     asset.OwnerID,
		Bucket:      asset.Bucket,
		Key:         asset.Key,
		FileName:    asset.FileName,
		Extension:   asset.Extension,
		ContentType: asset.ContentType,
		Size:        asset.Size,
		CreatedAt:   s.clock.Now(),
	}}, nil
}

type maxBytesReader struct {
	r     io.Reader
	max   int64
	read  int64
	buf   [1]byte
	ended bool
}

func (m *maxBytesReader) Read(p []byte) (int, error) {
	if m.read >= m.max {
		if m.ended {
			return 0, errAssetTooLarge
		}

		n, err := m.r.Read(m.buf[:])
		if n > 0 {
			m.ended = true
			return 0, errAssetTooLarge
		}
		if err == nil {
			m.ended = true
			return 0, errAssetTooLarge
		}
		return 0, err
	}

	remaining := m.max - m.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := m.r.Read(p)
	m.read += int64(n)
	return n, err
}
