package coa

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Resolve returns the account for the given id.
func (s *Service) Resolve(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// Forest loads the full chart and builds the arena-indexed tree.
func (s *Service) Forest(ctx context.Context) (*Forest, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildForest(accounts), nil
}

// CreateInput groups fields for an administrative account creation.
type CreateInput struct {
	Code       string
	Name       string
	Type       AccountType
	ParentID   *int64
	IsPostable bool
	CashClass  CashClass
}

// Create inserts a new account. Children inherit their level from the parent
// and must share the parent's type.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if in.Code == "" || in.Name == "" {
		return Account{}, errors.New("accounting: account code and name required")
	}
	if !in.Type.Valid() {
		return Account{}, fmt.Errorf("accounting: invalid account type %q", in.Type)
	}
	acc := Account{
		Code:       in.Code,
		Name:       in.Name,
		Type:       in.Type,
		ParentID:   in.ParentID,
		Level:      1,
		IsPostable: in.IsPostable,
		CashClass:  in.CashClass,
		IsActive:   true,
	}
	if acc.CashClass == "" {
		acc.CashClass = CashClassNone
	}
	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			return Account{}, err
		}
		if parent.Type != in.Type {
			return Account{}, shared.ErrParentTypeMismatch
		}
		acc.Level = parent.Level + 1
	}
	return s.repo.Insert(ctx, acc)
}
