package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Pets
// ============================================================

func (c *Client) ListPets(ctx context.Context, filter domain.PetFilter) ([]domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPets")
	defer span.End()

	conds := []string{"order=created_at.desc", "limit=100"}
	if filter.Species != "" {
		conds = append(conds, "species=eq."+url.QueryEscape(filter.Species))
	}
	if filter.Size != "" {
		conds = append(conds, "size=eq."+url.QueryEscape(filter.Size))
	}
	if filter.City != "" {
		conds = append(conds, "city=eq."+url.QueryEscape(filter.City))
	}
	if filter.State != "" {
		conds = append(conds, "state=eq."+url.QueryEscape(filter.State))
	}
	if filter.Status != "" {
		conds = append(conds, "status=eq."+url.QueryEscape(filter.Status))
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id=eq."+url.QueryEscape(filter.OwnerID))
	}

	path := "pets?" + strings.Join(conds, "&")
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/pets", Err: err}
	}

	var rows []domain.Pet
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode pets: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetPet(ctx context.Context, petID string) (*domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPet")
	defer span.End()
	span.SetAttributes(attribute.String("pet.id", petID))

	path := fmt.Sprintf("pets?id=eq.%s&limit=1", petID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/pets", Err: err}
	}

	var rows []domain.Pet
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode pet: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "pet", ID: petID}
	}
	return &rows[0], nil
}

func (c *Client) CreatePet(ctx context.Context, pet *domain.Pet) (*domain.Pet, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePet")
	defer span.End()

	if pet.ID == "" {
		pet.ID = uuid.New().String()
	}
	if pet.Status == "" {
		pet.Status = domain.PetAvailable
	}

	data := map[string]any{
		"id":          pet.ID,
		"owner_type":  pet.OwnerType,
		"owner_id":    pet.OwnerID,
		"name":        pet.Name,
		"species":     pet.Species,
		"breed":       pet.Breed,
		"age_months":  pet.AgeMonths,
		"size":        pet.Size,
		"sex":         pet.Sex,
		"description": pet.Description,
		"image_urls":  pet.ImageURLs,
		"city":        pet.City,
		"state":       pet.State,
		"status":      pet.Status,
	}

	body, err := c.doPost(ctx, "pets", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/pets", Err: err}
	}

	var rows []domain.Pet
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode pets: %w", err)
	}
	if len(rows) == 0 {
		return pet, nil
	}
	return &rows[0], nil
}

func (c *Client) UpdatePet(ctx context.Context, pet *domain.Pet) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePet")
	defer span.End()

	path := fmt.Sprintf("pets?id=eq.%s", pet.ID)
	return c.doPatch(ctx, path, map[string]any{
		"name":        pet.Name,
		"species":     pet.Species,
		"breed":       pet.Breed,
		"age_months":  pet.AgeMonths,
		"size":        pet.Size,
		"sex":         pet.Sex,
		"description": pet.Description,
		"image_urls":  pet.ImageURLs,
		"city":        pet.City,
		"state":       pet.State,
		"status":      pet.Status,
		"updated_at":  time.Now().Format(time.RFC3339),
	})
}

func (c *Client) DeletePet(ctx context.Context, petID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePet")
	defer span.End()

	return c.doDelete(ctx, fmt.Sprintf("pets?id=eq.%s", petID))
}

// ============================================================
// ONGs
// ============================================================

func (c *Client) ListONGs(ctx context.Context, city, state string) ([]domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListONGs")
	defer span.End()

	conds := []string{"is_active=eq.true", "order=name.asc"}
	if city != "" {
		conds = append(conds, "city=eq."+url.QueryEscape(city))
	}
	if state != "" {
		conds = append(conds, "state=eq."+url.QueryEscape(state))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "ongs?"+strings.Join(conds, "&"))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/ongs", Err: err}
	}

	var rows []domain.ONG
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode ongs: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetONG(ctx context.Context, ongID string) (*domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetONG")
	defer span.End()

	path := fmt.Sprintf("ongs?id=eq.%s&limit=1", ongID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/ongs", Err: err}
	}

	var rows []domain.ONG
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode ong: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "ong", ID: ongID}
	}
	return &rows[0], nil
}

func (c *Client) ListONGsByOwner(ctx context.Context, userID string) ([]domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListONGsByOwner")
	defer span.End()

	path := fmt.Sprintf("ongs?owner_user_id=eq.%s&is_active=eq.true", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/ongs", Err: err}
	}

	var rows []domain.ONG
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode ongs: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) CreateONG(ctx context.Context, ong *domain.ONG) (*domain.ONG, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateONG")
	defer span.End()

	if ong.ID == "" {
		ong.ID = uuid.New().String()
	}

	data := map[string]any{
		"id":            ong.ID,
		"owner_user_id": ong.OwnerUserID,
		"name":          ong.Name,
		"document":      ong.Document,
		"description":   ong.Description,
		"pix_key":       ong.PixKey,
		"city":          ong.City,
		"state":         ong.State,
		"logo_url":      ong.LogoURL,
		"is_active":     true,
	}

	body, err := c.doPost(ctx, "ongs", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/ongs", Err: err}
	}

	var rows []domain.ONG
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode ongs: %w", err)
	}
	if len(rows) == 0 {
		return ong, nil
	}
	return &rows[0], nil
}

func (c *Client) UpdateONG(ctx context.Context, ong *domain.ONG) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateONG")
	defer span.End()

	path := fmt.Sprintf("ongs?id=eq.%s", ong.ID)
	return c.doPatch(ctx, path, map[string]any{
		"name":        ong.Name,
		"description": ong.Description,
		"pix_key":     ong.PixKey,
		"city":        ong.City,
		"state":       ong.State,
		"logo_url":    ong.LogoURL,
	})
}

func (c *Client) DeleteONG(ctx context.Context, ongID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteONG")
	defer span.End()

	// Soft delete keeps donation history consistent
	path := fmt.Sprintf("ongs?id=eq.%s", ongID)
	return c.doPatch(ctx, path, map[string]any{"is_active": false})
}

// ============================================================
// Clinics
// ============================================================

func (c *Client) ListClinics(ctx context.Context, city, state string) ([]domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClinics")
	defer span.End()

	conds := []string{"is_active=eq.true", "order=name.asc"}
	if city != "" {
		conds = append(conds, "city=eq."+url.QueryEscape(city))
	}
	if state != "" {
		conds = append(conds, "state=eq."+url.QueryEscape(state))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "clinics?"+strings.Join(conds, "&"))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clinics", Err: err}
	}

	var rows []domain.Clinic
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode clinics: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetClinic(ctx context.Context, clinicID string) (*domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClinic")
	defer span.End()

	path := fmt.Sprintf("clinics?id=eq.%s&limit=1", clinicID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clinics", Err: err}
	}

	var rows []domain.Clinic
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode clinic: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "clinic", ID: clinicID}
	}
	return &rows[0], nil
}

func (c *Client) ListClinicsByOwner(ctx context.Context, userID string) ([]domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClinicsByOwner")
	defer span.End()

	path := fmt.Sprintf("clinics?owner_user_id=eq.%s&is_active=eq.true", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clinics", Err: err}
	}

	var rows []domain.Clinic
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode clinics: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) CreateClinic(ctx context.Context, clinic *domain.Clinic) (*domain.Clinic, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateClinic")
	defer span.End()

	if clinic.ID == "" {
		clinic.ID = uuid.New().String()
	}

	data := map[string]any{
		"id":            clinic.ID,
		"owner_user_id": clinic.OwnerUserID,
		"name":          clinic.Name,
		"crmv":          clinic.CRMV,
		"description":   clinic.Description,
		"phone":         clinic.Phone,
		"address":       clinic.Address,
		"city":          clinic.City,
		"state":         clinic.State,
		"logo_url":      clinic.LogoURL,
		"is_active":     true,
	}

	body, err := c.doPost(ctx, "clinics", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clinics", Err: err}
	}

	var rows []domain.Clinic
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode clinics: %w", err)
	}
	if len(rows) == 0 {
		return clinic, nil
	}
	return &rows[0], nil
}

func (c *Client) UpdateClinic(ctx context.Context, clinic *domain.Clinic) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateClinic")
	defer span.End()

	path := fmt.Sprintf("clinics?id=eq.%s", clinic.ID)
	return c.doPatch(ctx, path, map[string]any{
		"name":        clinic.Name,
		"description": clinic.Description,
		"phone":       clinic.Phone,
		"address":     clinic.Address,
		"city":        clinic.City,
		"state":       clinic.State,
		"logo_url":    clinic.LogoURL,
	})
}

func (c *Client) DeleteClinic(ctx context.Context, clinicID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteClinic")
	defer span.End()

	path := fmt.Sprintf("clinics?id=eq.%s", clinicID)
	return c.doPatch(ctx, path, map[string]any{"is_active": false})
}

// ============================================================
// Blog posts
// ============================================================

func (c *Client) ListPosts(ctx context.Context, publishedOnly bool) ([]domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListPosts")
	defer span.End()

	path := "blog_posts?order=created_at.desc&limit=50"
	if publishedOnly {
		path += "&published=eq.true"
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/blog_posts", Err: err}
	}

	var rows []domain.BlogPost
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode blog_posts: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) GetPost(ctx context.Context, postID string) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPost")
	defer span.End()

	path := fmt.Sprintf("blog_posts?id=eq.%s&limit=1", postID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/blog_posts", Err: err}
	}

	var rows []domain.BlogPost
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode blog_post: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "blog_post", ID: postID}
	}
	return &rows[0], nil
}

func (c *Client) CreatePost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreatePost")
	defer span.End()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	data := map[string]any{
		"id":                post.ID,
		"author_profile_id": post.AuthorProfileID,
		"author_name":       post.AuthorName,
		"title":             post.Title,
		"content":           post.Content,
		"cover_url":         post.CoverURL,
		"published":         post.Published,
	}

	body, err := c.doPost(ctx, "blog_posts", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/blog_posts", Err: err}
	}

	var rows []domain.BlogPost
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode blog_posts: %w", err)
	}
	if len(rows) == 0 {
		return post, nil
	}
	return &rows[0], nil
}

func (c *Client) UpdatePost(ctx context.Context, post *domain.BlogPost) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdatePost")
	defer span.End()

	path := fmt.Sprintf("blog_posts?id=eq.%s", post.ID)
	return c.doPatch(ctx, path, map[string]any{
		"title":      post.Title,
		"content":    post.Content,
		"cover_url":  post.CoverURL,
		"published":  post.Published,
		"updated_at": time.Now().Format(time.RFC3339),
	})
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeletePost")
	defer span.End()

	return c.doDelete(ctx, fmt.Sprintf("blog_posts?id=eq.%s", postID))
}
