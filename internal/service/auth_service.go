package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"voicevibe-be/internal/dto"
	"voicevibe-be/internal/entity"
	"voicevibe-be/internal/pkg/apperr"
	"voicevibe-be/internal/pkg/logger"
	"voicevibe-be/internal/repository/specification"
	"voicevibe-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minCredentialLength = 3

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*entity.User, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		log:        log,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*entity.User, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	if len(username) < minCredentialLength || len(password) < minCredentialLength {
		return nil, apperr.Validation("username and password must be at least 3 characters")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// Case-sensitive exact match; the unique index covers concurrent registers.
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Storage(err)
	}

	s.log.Info("auth", "user registered", map[string]interface{}{
		"user_id":  user.Id.String(),
		"username": user.Username,
	})

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*entity.User, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, apperr.Storage(err)
	}

	// Unknown user and wrong password yield the same error so callers cannot
	// enumerate accounts.
	if user == nil {
		return nil, apperr.InvalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidCredentials()
	}

	s.log.Info("auth", "user logged in", map[string]interface{}{
		"user_id":  user.Id.String(),
		"username": user.Username,
	})

	return user, nil
}
