package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
)

// TokenProvider returns the bearer token to attach to the next request.
// An empty token omits the Authorization header.
type TokenProvider func(ctx context.Context) (string, error)

type Client interface {
	Register(ctx context.Context, reg models.Registration) (string, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	ListFiles(ctx context.Context) ([]models.FileRecord, error)
	Upload(ctx context.Context, fileName string, content io.Reader, progress netx.ProgressFunc) (string, error)
	Download(ctx context.Context, storedFileName string) (*models.Download, error)
	Delete(ctx context.Context, storedFileName string) (string, error)
	Ping(ctx context.Context) error
}
