package contract

import "context"

// The credit engine never stores a counter. Everything is recomputed
// from the agenda table on read, so the stored-counter drift the old
// bookkeeping suffered from cannot happen.

// CreditsUsed counts completed sessions charged against the contract.
func (s *Service) CreditsUsed(ctx context.Context, trainerID, contractID int64) (int, error) {
	if _, err := s.Get(ctx, trainerID, contractID); err != nil {
		return 0, err
	}
	return s.events.CountDone(ctx, contractID)
}

// CreditsAvailable may be negative when a client is overbooked; the
// value is surfaced as-is, never clamped.
func (s *Service) CreditsAvailable(ctx context.Context, trainerID, contractID int64) (int, error) {
	c, err := s.Get(ctx, trainerID, contractID)
	if err != nil {
		return 0, err
	}
	used, err := s.events.CountDone(ctx, contractID)
	if err != nil {
		return 0, err
	}
	return c.CreditsTotal - used, nil
}

type ClientCredits struct {
	ClientID int64 `json:"cliente_id"`
	Residual int   `json:"crediti_residui"`
}

// ClientResidual sums remaining credits over every non-deleted contract
// of the client, closed ones included: closing a contract does not
// erase its credit accounting.
func (s *Service) ClientResidual(ctx context.Context, trainerID, clientID int64) (*ClientCredits, error) {
	var contracts []Contract
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}

	residual := 0
	for _, c := range contracts {
		used, err := s.events.CountDone(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		residual += c.CreditsTotal - used
	}
	return &ClientCredits{ClientID: clientID, Residual: residual}, nil
}
