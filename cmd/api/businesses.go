package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"biznesnet/internal/domain/businesses"
	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/comments"
	"biznesnet/internal/domain/ratings"
	"biznesnet/internal/domain/tags"
	"biznesnet/internal/media"
	"biznesnet/internal/metrics"
)

const (
	maxUploadBytes = 5 << 20 // 5 MB, image included
	maxFormBytes   = 64 << 10
)

// BusinessListResponse is the listing page: matching businesses plus what
// the filter controls need to render.
type BusinessListResponse struct {
	Businesses       []businesses.Business `json:"businesses"`
	Categories       []categories.Category `json:"categories"`
	Tags             []tags.Tag            `json:"tags"`
	SelectedCategory *int64                `json:"selected_category"`
	SelectedTags     []int64               `json:"selected_tags"`
	Query            string                `json:"query"`
	Success          bool                  `json:"success"`
	Cancelled        bool                  `json:"cancelled"`
}

// listBusinessesHandler godoc
//
//	@Summary		List businesses
//	@Description	Lists businesses filtered by category, tags (any of) and free text over name, description and location.
//	@Tags			businesses
//	@Produce		json
//	@Param			category	query		int		false	"Category ID"
//	@Param			tags		query		[]int	false	"Tag IDs, repeat the parameter for several"	collectionFormat(multi)
//	@Param			q			query		string	false	"Search text"
//	@Success		200			{object}	BusinessListResponse
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/businesses [get]
func (app *application) listBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()

	list, err := app.store.Businesses.List(ctx, filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	cats, err := app.store.Taxonomy.Categories.List(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	tagList, err := app.store.Taxonomy.Tags.List(ctx)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	query := r.URL.Query()
	resp := BusinessListResponse{
		Businesses:       nonNil(list),
		Categories:       nonNil(cats),
		Tags:             nonNil(tagList),
		SelectedCategory: filter.CategoryID,
		SelectedTags:     nonNil(filter.TagIDs),
		Query:            filter.Query,
		Success:          query.Get("success") == "true",
		Cancelled:        query.Get("cancelled") == "true",
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseListFilter(r *http.Request) (businesses.ListFilter, error) {
	query := r.URL.Query()
	filter := businesses.ListFilter{Query: query.Get("q")}

	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid category %q", raw)
		}
		filter.CategoryID = &id
	}

	for _, raw := range query["tags"] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid tag %q", raw)
		}
		filter.TagIDs = append(filter.TagIDs, id)
	}

	return filter, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type CreateBusinessPayload struct {
	Name        string   `schema:"name" validate:"required,max=255"`
	Description string   `schema:"description"`
	Location    string   `schema:"location" validate:"max=255"`
	Latitude    *float64 `schema:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `schema:"longitude" validate:"omitempty,gte=-180,lte=180"`
	CategoryID  *int64   `schema:"category"`
	TagIDs      []int64  `schema:"tags"`
}

// createBusinessHandler godoc
//
//	@Summary		Create a business
//	@Description	Creates a business owned by the caller and redirects to the listing.
//	@Tags			businesses
//	@Accept			mpfd
//	@Produce		json
//	@Param			name		formData	string	true	"Name"
//	@Param			description	formData	string	false	"Description"
//	@Param			location	formData	string	false	"Location"
//	@Param			latitude	formData	number	false	"Latitude"
//	@Param			longitude	formData	number	false	"Longitude"
//	@Param			category	formData	int		false	"Category ID"
//	@Param			tags		formData	[]int	false	"Tag IDs"	collectionFormat(multi)
//	@Param			image		formData	file	false	"JPEG, PNG, GIF or WebP image, 5MB max"
//	@Success		303
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error
//	@Failure		422	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/businesses [post]
func (app *application) createBusinessHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateBusinessPayload
	if err := readForm(w, r, &payload, maxUploadBytes); err != nil {
		if isDecodeError(err) {
			app.validationErrorResponse(w, r, err)
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.TagIDs = uniqueIDs(payload.TagIDs)

	if err := Validate.Struct(payload); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()

	fields, err := app.checkReferences(ctx, payload.CategoryID, payload.TagIDs)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	business := &businesses.Business{
		OwnerID:     user.ID,
		Name:        payload.Name,
		Description: strings.TrimSpace(payload.Description),
		Location:    strings.TrimSpace(payload.Location),
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		CategoryID:  payload.CategoryID,
		TagIDs:      payload.TagIDs,
	}

	imageURL, err := app.uploadImage(ctx, r)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			writeValidationError(w, map[string]string{"image": "must be a JPEG, PNG, GIF or WebP image"})
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if imageURL != "" {
		business.ImageURL = &imageURL
	}

	if err := app.store.Businesses.Create(ctx, business); err != nil {
		if imageURL != "" {
			if delErr := app.media.Delete(ctx, imageURL); delErr != nil {
				app.logger.Warnw("orphaned business image", "url", imageURL, "error", delErr)
			}
		}
		switch {
		case errors.Is(err, businesses.ErrInvalidReference):
			writeValidationError(w, map[string]string{"category": "references a deleted category or tag"})
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("business created", "business_id", business.ID, "owner_id", user.ID)

	http.Redirect(w, r, "/v1/businesses", http.StatusSeeOther)
}

// checkReferences returns a field error for a category or tag id that does
// not exist.
func (app *application) checkReferences(ctx context.Context, categoryID *int64, tagIDs []int64) (map[string]string, error) {
	fields := map[string]string{}

	if categoryID != nil {
		ok, err := app.store.Taxonomy.Categories.Exists(ctx, *categoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fields["category"] = "select a valid choice"
		}
	}

	if len(tagIDs) > 0 {
		n, err := app.store.Taxonomy.Tags.CountExisting(ctx, tagIDs)
		if err != nil {
			return nil, err
		}
		if n != len(tagIDs) {
			fields["tags"] = "select valid choices"
		}
	}

	return fields, nil
}

// uploadImage stores the optional "image" part and returns its URL, or "" when
// the form carries no image.
func (app *application) uploadImage(ctx context.Context, r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	return app.media.Upload(ctx, file, header.Filename)
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BusinessDetailResponse is one business with its feedback.
type BusinessDetailResponse struct {
	Business      *businesses.Business `json:"business"`
	Comments      []comments.Comment   `json:"comments"`
	AverageRating float64              `json:"average_rating"`
	TotalRatings  int64                `json:"total_ratings"`
	TotalLikes    int64                `json:"total_likes"`
	TotalDislikes int64                `json:"total_dislikes"`
	IsOwner       bool                 `json:"is_owner"`
}

// getBusinessHandler godoc
//
//	@Summary		Business detail
//	@Description	Returns a business with its comments (newest first), rating average and reaction totals.
//	@Tags			businesses
//	@Produce		json
//	@Param			businessID	path		int	true	"Business ID"
//	@Success		200			{object}	BusinessDetailResponse
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/businesses/{businessID} [get]
func (app *application) getBusinessHandler(w http.ResponseWriter, r *http.Request) {
	business := getBusinessFromContext(r)
	ctx := r.Context()

	list, err := app.store.Feedback.Comments.ListByBusiness(ctx, business.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	stats, err := app.store.Feedback.Ratings.Stats(ctx, business.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	likesCount, dislikesCount, err := app.store.Feedback.Likes.Counts(ctx, business.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := BusinessDetailResponse{
		Business:      business,
		Comments:      nonNil(list),
		AverageRating: stats.Average,
		TotalRatings:  stats.Count,
		TotalLikes:    likesCount,
		TotalDislikes: dislikesCount,
	}
	if user := getUserFromContext(r); user != nil {
		resp.IsOwner = user.ID == business.OwnerID
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CommentPayload struct {
	Text string `schema:"text" validate:"required,max=2000"`
}

type RatingPayload struct {
	Stars int `schema:"stars" validate:"gte=1,lte=5"`
}

// businessFeedbackHandler godoc
//
//	@Summary		Comment on or rate a business
//	@Description	Send comment_submit with text, or rating_submit with stars (1-5). Redirects back to the detail view.
//	@Tags			businesses
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			businessID		path		int		true	"Business ID"
//	@Param			comment_submit	formData	string	false	"Marks a comment submission"
//	@Param			text			formData	string	false	"Comment text"
//	@Param			rating_submit	formData	string	false	"Marks a rating submission"
//	@Param			stars			formData	int		false	"Stars, 1 to 5"
//	@Success		303
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error
//	@Failure		404	{object}	error
//	@Failure		422	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID} [post]
func (app *application) businessFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, maxFormBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	switch {
	case r.PostForm.Has("comment_submit"):
		app.addComment(w, r)
	case r.PostForm.Has("rating_submit"):
		app.addRating(w, r)
	default:
		app.badRequestResponse(w, r, errors.New("form must include comment_submit or rating_submit"))
	}
}

func (app *application) addComment(w http.ResponseWriter, r *http.Request) {
	business := getBusinessFromContext(r)
	user := getUserFromContext(r)

	var payload CommentPayload
	if err := formDecoder.Decode(&payload, r.PostForm); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}
	payload.Text = strings.TrimSpace(payload.Text)

	if err := Validate.Struct(payload); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	comment := &comments.Comment{
		BusinessID: business.ID,
		AuthorID:   user.ID,
		Author:     user.Username,
		Text:       payload.Text,
	}
	if err := app.store.Feedback.Comments.Create(r.Context(), comment); err != nil {
		switch {
		case errors.Is(err, comments.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	http.Redirect(w, r, businessPath(business.ID), http.StatusSeeOther)
}

func (app *application) addRating(w http.ResponseWriter, r *http.Request) {
	business := getBusinessFromContext(r)
	user := getUserFromContext(r)

	var payload RatingPayload
	if err := formDecoder.Decode(&payload, r.PostForm); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	rating := &ratings.Rating{
		BusinessID: business.ID,
		UserID:     user.ID,
		Stars:      payload.Stars,
	}
	if err := app.store.Feedback.Ratings.Upsert(r.Context(), rating); err != nil {
		switch {
		case errors.Is(err, ratings.ErrInvalidStars):
			writeValidationError(w, map[string]string{"stars": err.Error()})
		case errors.Is(err, ratings.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	metrics.RecordRating()

	http.Redirect(w, r, businessPath(business.ID), http.StatusSeeOther)
}

func businessPath(id int64) string {
	return fmt.Sprintf("/v1/businesses/%d", id)
}
