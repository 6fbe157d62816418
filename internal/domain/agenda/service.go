package agenda

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ContractGuard is the slice of the contract service the agenda needs:
// the closed-contract check before linking an event, and the lifecycle
// re-evaluation after a credit-consuming state change.
type ContractGuard interface {
	IsOpen(ctx context.Context, trainerID, contractID int64) (bool, error)
	ReevaluateLifecycle(ctx context.Context, trainerID, contractID int64) error
}

// Notifier mirrors contract.Notifier: best-effort dashboard pushes.
type Notifier interface {
	Publish(trainerID int64, event any)
}

type Service struct {
	db        *gorm.DB
	contracts ContractGuard
	notifs    Notifier
}

func NewService(db *gorm.DB, contracts ContractGuard, notifs Notifier) *Service {
	return &Service{db: db, contracts: contracts, notifs: notifs}
}

type CreateInput struct {
	ClientID   int64
	ContractID *int64
	Category   string
	StartsAt   time.Time
	EndsAt     time.Time
	Note       string
}

// EventChange is broadcast to the feed hub after a mutation.
type EventChange struct {
	Tipo    string `json:"tipo"`
	EventID int64  `json:"evento_id"`
	State   string `json:"stato"`
}

// Create books an event. Only PT sessions consume contract credits, so
// a contract link on any other category is refused, as is linking to a
// closed contract. Both checks run before anything is written.
func (s *Service) Create(ctx context.Context, trainerID int64, in CreateInput) (*Event, error) {
	if in.ClientID == 0 || !validCategory(in.Category) {
		return nil, ErrValidation
	}
	if in.EndsAt.Before(in.StartsAt) || in.EndsAt.Equal(in.StartsAt) {
		return nil, ErrValidation
	}
	if in.ContractID != nil && in.Category != CategoryPT {
		return nil, ErrValidation
	}

	if in.ContractID != nil {
		open, err := s.contracts.IsOpen(ctx, trainerID, *in.ContractID)
		if err != nil {
			return nil, ErrContractNotFound
		}
		if !open {
			return nil, ErrContractClosed
		}
	}

	e := &Event{
		TrainerID:  trainerID,
		ClientID:   in.ClientID,
		ContractID: in.ContractID,
		Category:   in.Category,
		State:      StateProgrammato,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		Note:       in.Note,
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, err
	}

	s.publish(trainerID, EventChange{Tipo: "agenda", EventID: e.ID, State: e.State})
	return e, nil
}

func (s *Service) Get(ctx context.Context, trainerID, eventID int64) (*Event, error) {
	var e Event
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND id = ?", trainerID, eventID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Service) List(ctx context.Context, trainerID int64, from, to time.Time) ([]Event, error) {
	q := s.db.WithContext(ctx).Where("trainer_id = ?", trainerID)
	if !from.IsZero() {
		q = q.Where("starts_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("starts_at < ?", to)
	}

	var out []Event
	err := q.Order("starts_at ASC").Find(&out).Error
	return out, err
}

// SetState moves an event through its lifecycle. Entering or leaving
// Fatto changes the contract's consumed credits, so the lifecycle rules
// are re-evaluated afterwards. The credit itself is only ever the
// recount of Fatto rows.
func (s *Service) SetState(ctx context.Context, trainerID, eventID int64, state string) (*Event, error) {
	if !validState(state) {
		return nil, ErrValidation
	}

	e, err := s.Get(ctx, trainerID, eventID)
	if err != nil {
		return nil, err
	}

	if e.State == state {
		return e, nil
	}

	e.State = state
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return nil, err
	}

	if e.ContractID != nil {
		if err := s.contracts.ReevaluateLifecycle(ctx, trainerID, *e.ContractID); err != nil {
			return nil, err
		}
	}

	s.publish(trainerID, EventChange{Tipo: "agenda", EventID: e.ID, State: e.State})
	return e, nil
}

// Cancel releases the credit (if any) by moving the event to
// Cancellato; the release is observable purely through recomputation.
func (s *Service) Cancel(ctx context.Context, trainerID, eventID int64) (*Event, error) {
	return s.SetState(ctx, trainerID, eventID, StateCancellato)
}

func (s *Service) Delete(ctx context.Context, trainerID, eventID int64) error {
	e, err := s.Get(ctx, trainerID, eventID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(e).Error; err != nil {
		return err
	}

	if e.ContractID != nil {
		return s.contracts.ReevaluateLifecycle(ctx, trainerID, *e.ContractID)
	}
	return nil
}

func (s *Service) publish(trainerID int64, event any) {
	if s.notifs != nil {
		s.notifs.Publish(trainerID, event)
	}
}
