package errs

import (
	"errors"
	"net/http"
)

var (
	ErrInternalServer     = errors.New("Internal server error")
	ErrClient             = errors.New("Bad request")
	ErrNotFound           = errors.New("Resource not found")
	ErrNoImages           = errors.New("Product images not found!")
	ErrDuplicateName      = errors.New("Product with this name already exists")
	ErrUnauthorized       = errors.New("Unauthorized access")
	ErrForbidden          = errors.New("You dont have access!")
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrUserAlreadyExists  = errors.New("User already exists")
	ErrUserInactive       = errors.New("User account is inactive")
	ErrSessionExpired     = errors.New("Session expired (logged in on another device)")
)

// errorStatuses is checked in order with errors.Is so wrapped errors keep their status.
var errorStatuses = []struct {
	err    error
	status int
}{
	{ErrClient, http.StatusBadRequest},
	{ErrNoImages, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicateName, http.StatusConflict},
	{ErrUserAlreadyExists, http.StatusConflict},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrSessionExpired, http.StatusUnauthorized},
	{ErrUserInactive, http.StatusForbidden},
	{ErrForbidden, http.StatusForbidden},
	{ErrInternalServer, http.StatusInternalServerError},
}

func GetErrorStatusCode(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}
