package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

type ListInput struct {
	Limit  int32 `validate:"omitempty,gte=1,lte=100"`
	Offset int32 `validate:"omitempty,gte=0"`
}

func (s *Usecase) List(ctx context.Context, in ListInput) ([]entity.Asset, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	assets, err := s.repoDB.ListAssets(ctx, clm.AccountID, in.Limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list assets", "owner_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return assets, nil
}

type DeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) Delete(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	asset, err := s.repoDB.GetAsset(ctx, clm.AccountID, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Asset not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get asset", "owner_id", clm.AccountID, "asset_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	deleted, err := s.repoDB.SoftDeleteAsset(ctx, clm.AccountID, in.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete asset", "owner_id", clm.AccountID, "asset_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !deleted {
		return goerror.NewBusiness("Asset not found", goerror.CodeNotFound)
	}

	if err := s.repoStorage.DeleteObject(ctx, asset.Bucket, asset.Key); err != nil {
		// The row is already hidden; the orphaned blob is logged for sweep.
		slog.ErrorContext(ctx, "failed to remove object", "bucket", asset.Bucket, "key", asset.Key, "error", err)
	}

	return nil
}

type DownloadURLInput struct {
	ID int64 `validate:"required,gt=0"`
}

type DownloadURLOutput struct {
	URL       string
	ExpiresIn int64
}

func (s *Usecase) DownloadURL(ctx context.Context, in DownloadURLInput) (*DownloadURLOutput, error) {
	ctx, span := s.startSpan(ctx, "DownloadURL")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	asset, err := s.repoDB.GetAsset(ctx, clm.AccountID, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Asset not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get asset", "owner_id", clm.AccountID, "asset_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	expiry := s.cfg.GetMinute("modules.asset.download_url_ttl_minutes")
	url, err := s.repoStorage.PresignGet(ctx, asset.Bucket, asset.Key, expiry)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign download url", "bucket", asset.Bucket, "key", asset.Key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DownloadURLOutput{URL: url, ExpiresIn: int64(expiry.Seconds())}, nil
}
