package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type tokenIssuer interface {
	GenerateToken(trainerID int64, email string) (string, error)
}

type Service struct {
	db  *gorm.DB
	jwt tokenIssuer
}

func NewService(db *gorm.DB, jwt tokenIssuer) *Service {
	return &Service{db: db, jwt: jwt}
}

type LoginResult struct {
	Trainer *Trainer
	Token   string
}

func (s *Service) Register(ctx context.Context, email, password, name, phone string) (*Trainer, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&Trainer{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	trainer := &Trainer{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Phone:        phone,
	}
	if err := s.db.WithContext(ctx).Create(trainer).Error; err != nil {
		return nil, err
	}
	return trainer, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var trainer Trainer
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&trainer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(trainer.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(trainer.ID, trainer.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Trainer: &trainer, Token: token}, nil
}
