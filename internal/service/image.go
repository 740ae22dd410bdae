package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plateshare/backend/config"
)

// ImageService stores recipe images in S3. The image field of a recipe
// write payload is either a reference to an already-stored file, passed
// through untouched, or a data URL whose payload is decoded and uploaded
// before persistence.
type ImageService struct {
	s3c    *config.S3Config
	logger zerolog.Logger
}

// NewImageService creates a new ImageService instance
func NewImageService(s3c *config.S3Config, logger zerolog.Logger) *ImageService {
	return &ImageService{s3c: s3c, logger: logger}
}

// Store resolves the submitted image field into a stored file reference
func (s *ImageService) Store(ctx context.Context, image string) (string, error) {
	if !strings.HasPrefix(image, "data:image") {
		return image, nil
	}

	data, ext, err := decodeImageDataURL(image)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("recipe-images/%s.%s", uuid.New().String(), ext)
	_, err = s.s3c.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3c.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3c.BucketName, key)
	s.logger.Info().Str("key", key).Msg("stored recipe image")
	return url, nil
}

// decodeImageDataURL splits a self-describing "data:image/<ext>;base64,"
// payload into raw bytes and its type tag.
func decodeImageDataURL(image string) ([]byte, string, error) {
	header, encoded, found := strings.Cut(image, ";base64,")
	if !found {
		return nil, "", ErrInvalidImage
	}
	ext := strings.TrimPrefix(header, "data:image/")
	if ext == "" || ext == header {
		return nil, "", ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", ErrInvalidImage
	}
	return data, ext, nil
}
