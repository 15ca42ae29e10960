package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photorank/internal/ids"
	"photorank/internal/models"
	"photorank/internal/ranking"
	"photorank/internal/repository"
	"photorank/internal/storage"
)

var (
	ErrInvalidRegistration = errors.New("invalid image registration")
	ErrUnknownLegacyTier   = errors.New("unknown legacy tier tag")
)

// ObjectVerifier confirms an uploaded object exists and yields its public
// URL. Upload itself happens outside this service.
type ObjectVerifier interface {
	VerifyObject(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
}

type RegisterInput struct {
	OwnerUsername string
	ObjectKey     string
	// LegacyTierTag carries an externally assigned tier from migrated data.
	// Remapped once here; classification itself never reads it.
	LegacyTierTag string
}

type RegisterResult struct {
	Image      models.Image
	LegacyTier ranking.Tier // empty unless a legacy tag was supplied
}

// ImageService registers externally uploaded images into the engine.
type ImageService struct {
	images ImageStore
	store  ObjectVerifier
	log    zerolog.Logger
}

func NewImageService(images ImageStore, store ObjectVerifier, log zerolog.Logger) *ImageService {
	return &ImageService{
		images: images,
		store:  store,
		log:    log,
	}
}

func (s *ImageService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	owner := strings.TrimSpace(input.OwnerUsername)
	objectKey := strings.TrimSpace(input.ObjectKey)
	if owner == "" || objectKey == "" {
		return RegisterResult{}, ErrInvalidRegistration
	}

	var legacyTier ranking.Tier
	if input.LegacyTierTag != "" {
		tier, ok := ranking.FromLegacy(input.LegacyTierTag)
		if !ok {
			return RegisterResult{}, fmt.Errorf("%w: %q", ErrUnknownLegacyTier, input.LegacyTierTag)
		}
		legacyTier = tier
	}

	var storageURL string
	if s.store != nil {
		if err := s.store.VerifyObject(ctx, objectKey); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return RegisterResult{}, fmt.Errorf("%w: object %q not found", ErrInvalidRegistration, objectKey)
			}
			return RegisterResult{}, fmt.Errorf("verify object: %w", err)
		}
		storageURL = s.store.PublicURL(objectKey)
	}

	now := time.Now().UTC()
	image := models.Image{
		ID:               ids.New(),
		OwnerUsername:    owner,
		StorageURL:       storageURL,
		ObjectKey:        objectKey,
		ModerationStatus: models.ModerationApproved,
		IsVisible:        true,
		RatingCount:      0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.images.Create(ctx, image); err != nil {
		return RegisterResult{}, fmt.Errorf("create image: %w", err)
	}

	s.log.Info().
		Str("image_id", image.ID).
		Str("owner", owner).
		Msg("image registered")

	return RegisterResult{Image: image, LegacyTier: legacyTier}, nil
}

// Get returns a visible image; hidden and flagged images read as not found.
func (s *ImageService) Get(ctx context.Context, id string) (models.Image, error) {
	image, err := s.images.GetByID(ctx, id)
	if err != nil {
		return models.Image{}, err
	}
	if !image.Rankable() {
		return models.Image{}, repository.ErrImageNotFound
	}
	return image, nil
}
