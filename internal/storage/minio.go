package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"velora_back_end/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectStore stocke les images produits dans MinIO
type ObjectStore struct {
	client *minio.Client
	cfg    *config.Config
}

func NewObjectStore(client *minio.Client, cfg *config.Config) *ObjectStore {
	return &ObjectStore{client: client, cfg: cfg}
}

func (s *ObjectStore) Enabled() bool {
	return s.client != nil
}

// UploadImage pousse le fichier dans le bucket sous un nom unique et
// renvoie l'URL publique de l'objet.
func (s *ObjectStore) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectName := uuid.NewString() + filepath.Ext(file.Filename)
	_, err = s.client.PutObject(ctx, s.cfg.MinioBucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if s.cfg.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinioEndpoint, s.cfg.MinioBucket, objectName), nil
}
