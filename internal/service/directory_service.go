package service

import (
	"context"
	"errors"
	"strconv"

	"go-timeclock/internal/model"
	"go-timeclock/internal/repository"
	"go-timeclock/pkg/apierror"
)

// DirectoryService is the read-only view over accounts flagged as managers.
type DirectoryService struct {
	accounts repository.AccountRepository
}

func NewDirectoryService(accounts repository.AccountRepository) *DirectoryService {
	return &DirectoryService{accounts: accounts}
}

func (s *DirectoryService) ListManagers(ctx context.Context) ([]model.ManagerSummary, error) {
	managers, err := s.accounts.ListManagers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.ManagerSummary, 0, len(managers))
	for _, m := range managers {
		out = append(out, model.ManagerSummary{ID: m.ID, Name: m.FullName(), Email: m.Email})
	}
	return out, nil
}

// ResolveManager returns the manager account for id, or a validation error
// when id is missing, unknown or not a manager.
func (s *DirectoryService) ResolveManager(ctx context.Context, id *int64) (model.Account, error) {
	if id == nil || *id <= 0 {
		return model.Account{}, apierror.BadRequest(model.ErrManagerRequired, "managerId")
	}

	manager, err := s.accounts.FindByID(ctx, *id)
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.Account{}, apierror.BadRequest(model.ErrInvalidManager, strconv.FormatInt(*id, 10))
	}
	if err != nil {
		return model.Account{}, err
	}

	if !manager.IsManager {
		return model.Account{}, apierror.BadRequest(model.ErrNotAManager, strconv.FormatInt(*id, 10))
	}
	return manager, nil
}

// IsManager reports whether accountID belongs to a manager.
func (s *DirectoryService) IsManager(ctx context.Context, accountID int64) (bool, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.IsManager, nil
}

// Employees resolves accounts for a record join. Missing ids are absent from
// the returned map.
func (s *DirectoryService) Employees(ctx context.Context, ids []int64) (map[int64]model.Account, error) {
	return s.accounts.FindByIDs(ctx, ids)
}
