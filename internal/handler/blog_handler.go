package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Blog
// ============================================================

func listPostsHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/blog")
		defer span.End()

		// Public listing only shows published posts; authors see drafts
		// through ?drafts=true on an authenticated call.
		publishedOnly := r.URL.Query().Get("drafts") != "true" || UserFromContext(ctx) == nil

		posts, err := svc.ListPosts(ctx, publishedOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if posts == nil {
			posts = []domain.BlogPost{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
	}
}

func getPostHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/blog/{postId}")
		defer span.End()

		post, err := svc.GetPost(ctx, chi.URLParam(r, "postId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func createPostHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/blog")
		defer span.End()

		var post domain.BlogPost
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user := UserFromContext(ctx)
		if post.AuthorProfileID == "" {
			post.AuthorProfileID = actingProfileID(r)
		}
		if post.AuthorName == "" {
			post.AuthorName = user.DisplayName
		}

		created, err := svc.CreatePost(ctx, &post)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updatePostHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/blog/{postId}")
		defer span.End()

		var post domain.BlogPost
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		post.ID = chi.URLParam(r, "postId")

		if err := svc.UpdatePost(ctx, actingProfileID(r), &post); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "publicação atualizada", ID: post.ID})
	}
}

func deletePostHandler(svc *service.CatalogService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/blog/{postId}")
		defer span.End()

		postID := chi.URLParam(r, "postId")
		if err := svc.DeletePost(ctx, actingProfileID(r), postID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
