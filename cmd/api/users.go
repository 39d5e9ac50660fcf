package main

import (
	"net/http"

	"biznesnet/internal/domain/users"
)

type userKey string

const userCtx userKey = "user"

// getUserFromContext returns nil on routes behind OptionalAuthMiddleware
// when the request is anonymous.
func getUserFromContext(r *http.Request) *users.User {
	user, _ := r.Context().Value(userCtx).(*users.User)
	return user
}
