package inbound

import (
	"github.com/aruna-labs/identra/internal/pkg/router"
)

// RegisterHTTPEndpoint mounts the asset routes. All of them need an
// authenticated caller.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/assets", end.Upload)
	r.GET("/api/v1/assets", end.List)
	r.DELETE("/api/v1/assets/:id", end.Delete)
	r.GET("/api/v1/assets/:id/download-url", end.DownloadURL)
}
