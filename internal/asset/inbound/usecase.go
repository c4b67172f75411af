package inbound

import (
	"context"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/asset/usecase"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (*usecase.UploadOutput, error)
	List(ctx context.Context, in usecase.ListInput) ([]entity.Asset, error)
	Delete(ctx context.Context, in usecase.DeleteInput) error
	DownloadURL(ctx context.Context, in usecase.DownloadURLInput) (*usecase.DownloadURLOutput, error)
}
