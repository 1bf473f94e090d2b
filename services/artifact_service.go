package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"gorm.io/gorm"
)

var (
	ErrInvalidArtifact   = errors.New("invalid artifact")
	ErrImagesUnavailable = errors.New("artifact image storage is not configured")
)

// ImageStore uploads artifact images and returns their public URL.
type ImageStore interface {
	UploadArtifactImage(ctx context.Context, file *multipart.FileHeader, title string) (string, error)
}

type ArtifactInput struct {
	Title       string
	Description string
	Rarity      progression.Rarity
}

// ArtifactService manages the artifact catalog.
type ArtifactService struct {
	DB      *gorm.DB
	Catalog *CatalogService
	Images  ImageStore // nil when R2 is not configured
	log     *logger.Logger
}

func NewArtifactService(db *gorm.DB, catalog *CatalogService, images ImageStore, log *logger.Logger) *ArtifactService {
	return &ArtifactService{DB: db, Catalog: catalog, Images: images, log: log.With("component", "artifacts")}
}

// CreateArtifact adds an artifact to the catalog, uploading its image first
// when one is given.
func (s *ArtifactService) CreateArtifact(ctx context.Context, in ArtifactInput, image *multipart.FileHeader) (progression.Artifact, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return progression.Artifact{}, fmt.Errorf("%w: title is required", ErrInvalidArtifact)
	}
	if in.Rarity == "" {
		in.Rarity = progression.RarityCommon
	}
	if !in.Rarity.Valid() {
		return progression.Artifact{}, fmt.Errorf("%w: unknown rarity %q", ErrInvalidArtifact, in.Rarity)
	}

	row := models.Artifact{
		Title:       in.Title,
		Description: in.Description,
		Rarity:      string(in.Rarity),
	}
	if image != nil {
		if s.Images == nil {
			return progression.Artifact{}, ErrImagesUnavailable
		}
		url, err := s.Images.UploadArtifactImage(ctx, image, in.Title)
		if err != nil {
			return progression.Artifact{}, fmt.Errorf("upload artifact image: %w", err)
		}
		row.ImageURL = url
	}

	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return progression.Artifact{}, fmt.Errorf("create artifact: %w", err)
	}
	s.Catalog.Invalidate()
	s.log.Info("🏺 artifact created", "artifact_id", row.ID, "title", row.Title, "rarity", row.Rarity)
	return toArtifact(row), nil
}
