package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"biznesnet/internal/domain/categories"
	"biznesnet/internal/domain/tags"

	"github.com/go-chi/chi/v5"
)

type CreateCategoryPayload struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateTagPayload struct {
	Name string `json:"name" validate:"required,max=50"`
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Tags			taxonomy
//	@Produce		json
//	@Success		200	{array}		categories.Category
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Taxonomy.Categories.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, nonNil(list)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createCategoryHandler godoc
//
//	@Summary		Create a category
//	@Tags			taxonomy
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCategoryPayload	true	"Category"
//	@Success		201		{object}	categories.Category
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error
//	@Failure		422		{object}	error
//	@Security		BasicAuth
//	@Router			/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)

	if err := Validate.Struct(payload); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	category := &categories.Category{Name: payload.Name}
	if err := app.store.Taxonomy.Categories.Create(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, categories.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete a category
//	@Description	Businesses in the category are kept and lose their category.
//	@Tags			taxonomy
//	@Param			categoryID	path	int	true	"Category ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "categoryID"), 10, 64)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	if err := app.store.Taxonomy.Categories.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, categories.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listTagsHandler godoc
//
//	@Summary		List tags
//	@Tags			taxonomy
//	@Produce		json
//	@Success		200	{array}		tags.Tag
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Router			/tags [get]
func (app *application) listTagsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Taxonomy.Tags.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, nonNil(list)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTagHandler godoc
//
//	@Summary		Create a tag
//	@Tags			taxonomy
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTagPayload	true	"Tag"
//	@Success		201		{object}	tags.Tag
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error
//	@Failure		422		{object}	error
//	@Security		BasicAuth
//	@Router			/tags [post]
func (app *application) createTagHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTagPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)

	if err := Validate.Struct(payload); err != nil {
		app.validationErrorResponse(w, r, err)
		return
	}

	tag := &tags.Tag{Name: payload.Name}
	if err := app.store.Taxonomy.Tags.Create(r.Context(), tag); err != nil {
		switch {
		case errors.Is(err, tags.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, tag); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteTagHandler godoc
//
//	@Summary		Delete a tag
//	@Description	Businesses keep existing; only their association with the tag is removed.
//	@Tags			taxonomy
//	@Param			tagID	path	int	true	"Tag ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		BasicAuth
//	@Router			/tags/{tagID} [delete]
func (app *application) deleteTagHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tagID"), 10, 64)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

	if err := app.store.Taxonomy.Tags.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, tags.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
