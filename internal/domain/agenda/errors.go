package agenda

import "errors"

var (
	ErrNotFound         = errors.New("evento non trovato")
	ErrValidation       = errors.New("dati evento non validi")
	ErrContractClosed   = errors.New("il contratto è chiuso")
	ErrContractNotFound = errors.New("contratto non trovato")
)
