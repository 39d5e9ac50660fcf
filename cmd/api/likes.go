package main

import (
	"errors"
	"net/http"

	"biznesnet/internal/domain/likes"
	"biznesnet/internal/metrics"
)

type likeErrorResponse struct {
	Error string `json:"error"`
}

// likeToggleHandler godoc
//
//	@Summary		Like or dislike a business
//	@Description	value 1 likes and -1 dislikes. Sending the current reaction again removes it.
//	@Tags			businesses
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			businessID	path		int		true	"Business ID"
//	@Param			value		formData	string	true	"1 or -1"
//	@Success		200			{object}	likes.ToggleResult
//	@Failure		400			{object}	likeErrorResponse
//	@Failure		401			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/like-toggle [post]
func (app *application) likeToggleHandler(w http.ResponseWriter, r *http.Request) {
	business := getBusinessFromContext(r)
	user := getUserFromContext(r)

	if err := parseForm(w, r, maxFormBytes); err != nil {
		app.logger.Warnw("bad like toggle form", "business_id", business.ID, "error", err)
		writeJSON(w, http.StatusBadRequest, likeErrorResponse{Error: "Invalid request"})
		return
	}

	value, err := likes.ParseValue(r.PostForm.Get("value"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, likeErrorResponse{Error: "Invalid value"})
		return
	}

	res, err := app.store.Feedback.Likes.Toggle(r.Context(), user.ID, business.ID, value)
	if err != nil {
		switch {
		case errors.Is(err, likes.ErrInvalidValue):
			writeJSON(w, http.StatusBadRequest, likeErrorResponse{Error: "Invalid value"})
		case errors.Is(err, likes.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	metrics.RecordReaction(string(res.Status))

	if err := writeJSON(w, http.StatusOK, res); err != nil {
		app.internalServerError(w, r, err)
	}
}
