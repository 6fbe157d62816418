package contract

import "errors"

var (
	// ErrNotFound covers both "does not exist" and "belongs to another
	// trainer": cross-tenant lookups must be indistinguishable from
	// missing rows.
	ErrNotFound = errors.New("contratto o rata non trovati")

	ErrValidation       = errors.New("dati non validi")
	ErrContractClosed   = errors.New("il contratto è chiuso")
	ErrResidualExceeded = errors.New("importo superiore al residuo rateizzabile")
	ErrOverpayment      = errors.New("importo superiore al residuo della rata")
	ErrAlreadySettled   = errors.New("la rata è già saldata")
	ErrNothingToReverse = errors.New("nessun pagamento da stornare")

	ErrHasPendingInstallments = errors.New("il contratto ha rate non saldate")
	ErrHasLinkedEvents        = errors.New("il contratto ha sedute collegate in agenda")
)
