package client

import "errors"

var (
	ErrNotFound        = errors.New("cliente non trovato")
	ErrValidation      = errors.New("dati cliente non validi")
	ErrActiveContracts = errors.New("il cliente ha contratti attivi")
)
