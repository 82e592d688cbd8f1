package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trade-journal/internal/models"
)

var (
	ErrInvalidTimezone = errors.New("unknown timezone")
)

// AccountStore persists journal accounts
type AccountStore interface {
	Create(account *models.Account) error
	GetByIDAndUserID(id, userID uint) (*models.Account, error)
	GetByUserIDPaginated(userID uint, page, pageSize int) ([]models.Account, int64, error)
	Update(account *models.Account) error
	Delete(id uint) error
}

// AccountService handles account operations
type AccountService struct {
	accountRepo AccountStore
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo AccountStore) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// CreateAccountRequest represents the create account request
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Broker   string `json:"broker" binding:"omitempty,max=50"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Timezone string `json:"timezone" binding:"omitempty,max=64"`
}

// CreateAccount creates a new journal account
func (s *AccountService) CreateAccount(userID uint, req *CreateAccountRequest) (*models.Account, error) {
	if err := checkTimezone(req.Timezone); err != nil {
		return nil, err
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	account := &models.Account{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Broker:   req.Broker,
		Currency: strings.ToUpper(req.Currency),
		Timezone: req.Timezone,
	}

	if err := s.accountRepo.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetAccountsPaginated retrieves accounts with pagination
func (s *AccountService) GetAccountsPaginated(userID uint, page, pageSize int) ([]models.Account, int64, error) {
	return s.accountRepo.GetByUserIDPaginated(userID, page, pageSize)
}

// GetAccountByID retrieves an account by ID, only if userID owns it
func (s *AccountService) GetAccountByID(userID, accountID uint) (*models.Account, error) {
	return s.accountRepo.GetByIDAndUserID(accountID, userID)
}

// UpdateAccountRequest represents the update account request
type UpdateAccountRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Broker   *string `json:"broker" binding:"omitempty,max=50"`
	Timezone *string `json:"timezone" binding:"omitempty,max=64"`
}

// UpdateAccount updates an account. A new timezone changes how later imports
// read export timestamps; trades already stored keep their instants.
func (s *AccountService) UpdateAccount(account *models.Account, req *UpdateAccountRequest) (*models.Account, error) {
	if req.Timezone != nil {
		if err := checkTimezone(*req.Timezone); err != nil {
			return nil, err
		}
		account.Timezone = *req.Timezone
	}
	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Broker != nil {
		account.Broker = *req.Broker
	}

	if err := s.accountRepo.Update(account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount deletes an account
func (s *AccountService) DeleteAccount(account *models.Account) error {
	return s.accountRepo.Delete(account.ID)
}

func checkTimezone(name string) error {
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return nil
}
