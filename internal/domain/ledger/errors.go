package ledger

import "errors"

var (
	ErrNotFound      = errors.New("movimento non trovato")
	ErrInvalidAmount = errors.New("importo non valido")
	ErrInvalidType   = errors.New("tipo movimento non valido")
)
