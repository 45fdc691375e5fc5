package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogService exposes the adoption catalog: pets, ONGs, clinics and the
// blog. ONG reads are cached since the donation flow hits them repeatedly.
type CatalogService struct {
	catalog port.CatalogStore
	storage port.ObjectStorage
	ongs    port.Cache[domain.ONG]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(catalog port.CatalogStore, storage port.ObjectStorage, ongs port.Cache[domain.ONG], metrics *observability.Metrics, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		storage: storage,
		ongs:    ongs,
		metrics: metrics,
		logger:  logger,
	}
}

// ============================================================
// Pets
// ============================================================

func (s *CatalogService) ListPets(ctx context.Context, filter domain.PetFilter) ([]domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListPets")
	defer span.End()
	return s.catalog.ListPets(ctx, filter)
}

func (s *CatalogService) GetPet(ctx context.Context, petID string) (*domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetPet")
	defer span.End()
	return s.catalog.GetPet(ctx, petID)
}

// CreatePet lists a pet under the caller's active profile.
func (s *CatalogService) CreatePet(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreatePet")
	defer span.End()

	if pet.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "nome é obrigatório"}
	}
	if pet.Species == "" {
		return nil, &domain.ErrValidation{Field: "species", Message: "espécie é obrigatória"}
	}
	return s.catalog.CreatePet(ctx, pet)
}

// UpdatePet rejects writes from anyone but the listing profile.
func (s *CatalogService) UpdatePet(ctx context.Context, ownerID string, pet *domain.Pet) error {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdatePet")
	defer span.End()

	existing, err := s.catalog.GetPet(ctx, pet.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return &domain.ErrForbidden{Action: "editar pet de outro perfil"}
	}
	pet.OwnerType = existing.OwnerType
	pet.OwnerID = existing.OwnerID
	return s.catalog.UpdatePet(ctx, pet)
}

func (s *CatalogService) DeletePet(ctx context.Context, ownerID, petID string) error {
	ctx, span := tracer.Start(ctx, "CatalogService.DeletePet")
	defer span.End()

	existing, err := s.catalog.GetPet(ctx, petID)
	if err != nil {
		return err
	}
	if existing.OwnerID != ownerID {
		return &domain.ErrForbidden{Action: "remover pet de outro perfil"}
	}
	return s.catalog.DeletePet(ctx, petID)
}

// ============================================================
// ONGs
// ============================================================

func (s *CatalogService) ListONGs(ctx context.Context, city, state string) ([]domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListONGs")
	defer span.End()
	return s.catalog.ListONGs(ctx, city, state)
}

// GetONG serves from the TTL cache when possible.
func (s *CatalogService) GetONG(ctx context.Context, ongID string) (*domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetONG")
	defer span.End()
	span.SetAttributes(attribute.String("ong.id", ongID))

	if cached, ok := s.ongs.Get(ongID); ok {
		s.metrics.IncrCacheHit("ong")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("ong")

	ong, err := s.catalog.GetONG(ctx, ongID)
	if err != nil {
		return nil, err
	}
	s.ongs.Set(ongID, *ong)
	return ong, nil
}

func (s *CatalogService) CreateONG(ctx context.Context, ong *domain.ONG) (*domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateONG")
	defer span.End()

	if ong.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "nome é obrigatório"}
	}
	if ong.Document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "CNPJ é obrigatório"}
	}
	return s.catalog.CreateONG(ctx, ong)
}

func (s *CatalogService) UpdateONG(ctx context.Context, userID string, ong *domain.ONG) error {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdateONG")
	defer span.End()

	existing, err := s.catalog.GetONG(ctx, ong.ID)
	if err != nil {
		return err
	}
	if existing.OwnerUserID != userID {
		return &domain.ErrForbidden{Action: "editar ONG de outro usuário"}
	}
	if err := s.catalog.UpdateONG(ctx, ong); err != nil {
		return err
	}
	s.ongs.Delete(ong.ID)
	return nil
}

func (s *CatalogService) DeleteONG(ctx context.Context, userID, ongID string) error {
	ctx, span := tracer.Start(ctx, "CatalogService.DeleteONG")
	defer span.End()

	existing, err := s.catalog.GetONG(ctx, ongID)
	if err != nil {
		return err
	}
	if existing.OwnerUserID != userID {
		return &domain.ErrForbidden{Action: "remover ONG de outro usuário"}
	}
	if err := s.catalog.DeleteONG(ctx, ongID); err != nil {
		return err
	}
	s.ongs.Delete(ongID)
	return nil
}

// ============================================================
// Clinics
// ============================================================

func (s *CatalogService) ListClinics(ctx context.Context, city, state string) ([]domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListClinics")
	defer span.End()
	return s.catalog.ListClinics(ctx, city, state)
}

func (s *CatalogService) GetClinic(ctx context.Context, clinicID string) (*domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetClinic")
	defer span.End()
	return s.catalog.GetClinic(ctx, clinicID)
}

func (s *CatalogService) CreateClinic(ctx context.Context, clinic *domain.Clinic) (*domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateClinic")
	defer span.End()

	if clinic.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "nome é obrigatório"}
	}
	if clinic.CRMV == "" {
		return nil, &domain.ErrValidation{Field: "crmv", Message: "CRMV é obrigatório"}
	}
	return s.catalog.CreateClinic(ctx, clinic)
}

func (s *CatalogService) UpdateClinic(ctx context.Context, userID string, clinic *domain.Clinic) error {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdateClinic")
	defer span.End()

	existing, err := s.catalog.GetClinic(ctx, clinic.ID)
	if err != nil {
		return err
	}
	if existing.OwnerUserID != userID {
		return &domain.ErrForbidden{Action: "editar clínica de outro usuário"}
	}
	return s.catalog.UpdateClinic(ctx, clinic)
}

func (s *CatalogService) DeleteClinic(ctx context.Context, userID, clinicID string) error {
	ctx, span := tracer.Start(ctx, "CatalogService.DeleteClinic")
	defer span.End()

	existing, err := s.catalog.GetClinic(ctx, clinicID)
	if err != nil {
		return err
	}
	if existing.OwnerUserID != userID {
		return &domain.ErrForbidden{Action: "remover clínica de outro usuário"}
	}
	return s.catalog.DeleteClinic(ctx, clinicID)
}

// ============================================================
// Blog
// ============================================================

func (s *CatalogService) ListPosts(ctx context.Context, publishedOnly bool) ([]domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListPosts")
	defer span.End()
	return s.catalog.ListPosts(ctx, publishedOnly)
}

func (s *CatalogService) GetPost(ctx context.Context, postID string) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetPost")
	defer span.End()
	return s.catalog.GetPost(ctx, postID)
}

func (s *CatalogService) CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreatePost")
	defer span.End()

	if post.Title == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "título é obrigatório"}
	}
	if post.Content == "" {
		return nil, &domain.ErrValidation{Field: "content", Message: "conteúdo é obrigatório"}
	}
	return s.catalog.CreatePost(ctx, post)
}

func (s *CatalogService) UpdatePost(ctx context.Context, authorProfileID string, post *domain.BlogPost) error {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdatePost")
	defer span.End()

	existing, err := s.catalog.GetPost(ctx, post.ID)
	if err != nil {
		return err
	}
	if existing.AuthorProfileID != authorProfileID {
		return &domain.ErrForbidden{Action: "editar publicação de outro perfil"}
	}
	return s.catalog.UpdatePost(ctx, post)
}

func (s *CatalogService) DeletePost(ctx context.Context, authorProfileID, postID string) error {
	ctx, span := tracer.Start(ctx, "CatalogService.DeletePost")
	defer span.End()

	existing, err := s.catalog.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if existing.AuthorProfileID != authorProfileID {
		return &domain.ErrForbidden{Action: "remover publicação de outro perfil"}
	}
	return s.catalog.DeletePost(ctx, postID)
}

// ============================================================
// Uploads
// ============================================================

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

const maxUploadSize = 5 << 20 // 5 MiB

// UploadImage stores an image under the uploader's namespace and returns
// its public URL.
func (s *CatalogService) UploadImage(ctx context.Context, ownerID, filename, contentType string, r io.Reader, size int64) (*domain.UploadResult, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.UploadImage")
	defer span.End()
	span.SetAttributes(attribute.Int64("upload.size", size))

	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, &domain.ErrValidation{Field: "content-type", Message: "apenas imagens JPEG, PNG ou WebP"}
	}
	if size <= 0 || size > maxUploadSize {
		return nil, &domain.ErrValidation{Field: "file", Message: "arquivo deve ter entre 1 byte e 5 MB"}
	}

	name := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if name == "" || name == "." {
		name = "image"
	}
	objectPath := fmt.Sprintf("%s/%s-%s%s", ownerID, name, uuid.New().String()[:8], ext)

	result, err := s.storage.Upload(ctx, objectPath, contentType, r, size)
	if err != nil {
		s.metrics.IncrExternalError("storage")
		return nil, err
	}

	s.logger.Info("image uploaded",
		zap.String("owner_id", ownerID),
		zap.String("path", result.Path),
	)
	return result, nil
}

// DeleteImage removes a previously uploaded object. Paths are namespaced by
// uploader, so callers can only delete under their own prefix.
func (s *CatalogService) DeleteImage(ctx context.Context, ownerID, objectPath string) error {
	ctx, span := tracer.Start(ctx, "CatalogService.DeleteImage")
	defer span.End()

	if !strings.HasPrefix(objectPath, ownerID+"/") {
		return &domain.ErrForbidden{Action: "remover arquivo de outro perfil"}
	}
	if err := s.storage.Delete(ctx, objectPath); err != nil {
		s.metrics.IncrExternalError("storage")
		return err
	}
	return nil
}
