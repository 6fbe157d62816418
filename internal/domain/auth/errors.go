package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("credenziali non valide")
	ErrEmailAlreadyExists = errors.New("email già registrata")
)
