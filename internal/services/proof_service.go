package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"sekolahpay/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MaxProofSize caps uploaded transfer receipts at 5 MB.
const MaxProofSize = 5 * 1024 * 1024

// ProofService stores payment proof images (transfer receipts) in Cloudinary.
type ProofService struct {
	cld *cloudinary.Cloudinary
}

// NewProofService creates a proof storage service
func NewProofService(cfg *config.Config) (*ProofService, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("missing Cloudinary configuration")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &ProofService{cld: cld}, nil
}

// UploadProof uploads a payment proof image and returns its URL. The
// payment reference keys the stored object so re-uploads replace the proof.
func (s *ProofService) UploadProof(file multipart.File, filename, reference string) (string, error) {
	allowedTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedTypes[ext] {
		return "", fmt.Errorf("invalid file type: %s. Allowed types: jpg, jpeg, png, webp", ext)
	}

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("proofs/payment_%s", reference),
		Folder:       "sekolahpay/proofs",
		Overwrite:    &[]bool{true}[0],
		ResourceType: "image",
	}

	result, err := s.cld.Upload.Upload(context.Background(), file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload proof: %w", err)
	}

	return result.SecureURL, nil
}
