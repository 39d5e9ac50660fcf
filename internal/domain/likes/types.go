package likes

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidValue      = errors.New("value must be 1 or -1")
	ErrNotFound          = errors.New("business not found")
	QueryTimeoutDuration = time.Second * 5
)

// Value is the reaction a user submits: Like or Dislike.
type Value int16

const (
	Like    Value = 1
	Dislike Value = -1
)

// ParseValue accepts exactly "1" and "-1".
func ParseValue(s string) (Value, error) {
	switch s {
	case "1":
		return Like, nil
	case "-1":
		return Dislike, nil
	default:
		return 0, ErrInvalidValue
	}
}

// State is a user's stored reaction to one business. None means no row.
type State int8

const (
	None State = iota
	Liked
	Disliked
)

func (s State) String() string {
	switch s {
	case Liked:
		return "liked"
	case Disliked:
		return "disliked"
	default:
		return "none"
	}
}

type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusRemoved Status = "removed"
)

func stateOf(v Value) State {
	if v == Like {
		return Liked
	}
	return Disliked
}

// Transition applies one submission to the current state. Submitting the
// reaction already held clears it, submitting the opposite one switches it.
func Transition(current State, v Value) (State, Status) {
	target := stateOf(v)
	switch current {
	case None:
		return target, StatusCreated
	case target:
		return None, StatusRemoved
	default:
		return target, StatusUpdated
	}
}

type ToggleResult struct {
	Status        Status `json:"status"`
	TotalLikes    int64  `json:"total_likes"`
	TotalDislikes int64  `json:"total_dislikes"`
}

type Store interface {
	Toggle(ctx context.Context, userID, businessID int64, v Value) (*ToggleResult, error)
	Counts(ctx context.Context, businessID int64) (likes int64, dislikes int64, err error)
}
