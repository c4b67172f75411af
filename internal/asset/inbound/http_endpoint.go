package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aruna-labs/identra/internal/asset/usecase"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for asset upload, listing, deletion
// and signed download links.
type HTTPEndpoint struct {
	uc uc
}

// Upload stores a new asset for the caller.
// @Summary Upload asset
// @Description Stores a file in object storage and records its metadata.
// @Tags Asset
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 200 {object} router.successResponse{data=AssetResponse} "Stored asset"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/assets [post]
func (h *HTTPEndpoint) Upload(r *router.Request) (any, error) {
	ctx := r.Context()

	file, fileName, err := r.StreamSingleFileNamed("file")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	resp, err := h.uc.Upload(ctx, usecase.UploadInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		FileName:    fileName,
		ContentType: http.DetectContentType(head[:n]),
	})
	if err != nil {
		return nil, err
	}

	return AssetResponse{
		ID:          resp.Asset.ID,
		FileName:    resp.Asset.FileName,
		Extension:   resp.Asset.Extension,
		ContentType: resp.Asset.ContentType,
		Size:        resp.Asset.Size,
		CreatedAt:   resp.Asset.CreatedAt,
	}, nil
}

// List returns the caller's assets.
// @Summary List assets
// @Description Lists the caller's assets, newest first.
// @Tags Asset
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (max 100, default 20)"
// @Param offset query int false "Page offset"
// @Success 200 {object} router.successResponse{data=AssetsResponse} "Assets"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/assets [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	assets, err := h.uc.List(r.Context(), usecase.ListInput{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	items := make([]AssetResponse, 0, len(assets))
	for _, asset := range assets {
		items = append(items, AssetResponse{
			ID:          asset.ID,
			FileName:    asset.FileName,
			Extension:   asset.Extension,
			ContentType: asset.ContentType,
			Size:        asset.Size,
			CreatedAt:   asset.CreatedAt,
		})
	}

	return AssetsResponse{Assets: items}, nil
}

// Delete removes one asset.
// @Summary Delete asset
// @Description Removes the asset row and its stored object.
// @Tags Asset
// @Security BearerAuth
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} router.successResponse "Deleted"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Asset not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/assets/{id} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.Delete(r.Context(), usecase.DeleteInput{ID: id})
}

// DownloadURL returns a short-lived signed link for one asset.
// @Summary Get download URL
// @Description Returns a presigned download URL for the asset.
// @Tags Asset
// @Security BearerAuth
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} router.successResponse{data=DownloadURLResponse} "Signed URL"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Asset not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/assets/{id}/download-url [get]
func (h *HTTPEndpoint) DownloadURL(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.DownloadURL(r.Context(), usecase.DownloadURLInput{ID: id})
	if err != nil {
		return nil, err
	}

	return DownloadURLResponse{URL: resp.URL, ExpiresIn: resp.ExpiresIn}, nil
}
