package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractCounter reports how many non-deleted contracts a client has,
// closed or not. A closed contract keeps its financial history, so the
// guard counts every live row. Implemented by the contract service.
type ContractCounter interface {
	CountActiveByClient(ctx context.Context, trainerID, clientID int64) (int64, error)
}

type Service struct {
	db        *gorm.DB
	contracts ContractCounter
}

func NewService(db *gorm.DB, contracts ContractCounter) *Service {
	return &Service{db: db, contracts: contracts}
}

type Input struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Note      string
	BirthDate *time.Time
}

func (s *Service) Create(ctx context.Context, trainerID int64, in Input) (*Client, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, ErrValidation
	}

	c := &Client{
		TrainerID: trainerID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:     in.Phone,
		Note:      in.Note,
		BirthDate: in.BirthDate,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, trainerID, clientID int64) (*Client, error) {
	var c Client
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND id = ?", trainerID, clientID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context, trainerID int64) ([]Client, error) {
	var out []Client
	err := s.db.WithContext(ctx).
		Where("trainer_id = ?", trainerID).
		Order("last_name ASC, first_name ASC").
		Find(&out).Error
	return out, err
}

func (s *Service) Update(ctx context.Context, trainerID, clientID int64, in Input) (*Client, error) {
	c, err := s.Get(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, ErrValidation
	}

	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = in.Phone
	c.Note = in.Note
	c.BirthDate = in.BirthDate

	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes the client. Any non-deleted contract, open or
// closed, blocks it: financial history must be detached first.
func (s *Service) Delete(ctx context.Context, trainerID, clientID int64) error {
	c, err := s.Get(ctx, trainerID, clientID)
	if err != nil {
		return err
	}

	n, err := s.contracts.CountActiveByClient(ctx, trainerID, clientID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrActiveContracts
	}

	return s.db.WithContext(ctx).Delete(c).Error
}

func (s *Service) AddMeasurement(ctx context.Context, trainerID, clientID int64, takenAt time.Time, weightKg, bodyFat decimal.Decimal, note string) (*Measurement, error) {
	if _, err := s.Get(ctx, trainerID, clientID); err != nil {
		return nil, err
	}
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}

	m := &Measurement{
		TrainerID: trainerID,
		ClientID:  clientID,
		TakenAt:   takenAt,
		WeightKg:  weightKg,
		BodyFat:   bodyFat,
		Note:      note,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListMeasurements(ctx context.Context, trainerID, clientID int64) ([]Measurement, error) {
	if _, err := s.Get(ctx, trainerID, clientID); err != nil {
		return nil, err
	}

	var out []Measurement
	err := s.db.WithContext(ctx).
		Where("trainer_id = ? AND client_id = ?", trainerID, clientID).
		Order("taken_at DESC").
		Find(&out).Error
	return out, err
}
