package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/dates"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/eliasfjaere/utlaan-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AssetGuard covers the registry operations the ledger needs inside its
// transactions: stock accounting and PC exclusivity.
type AssetGuard interface {
	AdjustAvailability(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, delta int) error
	EnsurePCAvailable(ctx context.Context, tx *gorm.DB, pcID uuid.UUID, excludeLoanID uuid.UUID) error
}

type opRecorder interface {
	IncLoanOp(operation string)
}

// Service defines the loan lifecycle operations.
type Service interface {
	CreateLoan(ctx context.Context, actor auth.Actor, input LoanInput) (*LoanView, error)
	GetLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) (*LoanView, error)
	EditLoan(ctx context.Context, actor auth.Actor, id uuid.UUID, input LoanInput) (*LoanView, error)
	ReturnLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ReturnResult, error)
	DeleteLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	ListLoans(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*LoanList, error)
	FindLastLoanByBorrower(ctx context.Context, actor auth.Actor, name string) (*BorrowerDefaults, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	assets  AssetGuard
	metrics opRecorder
	loc     *time.Location
	now     func() time.Time
}

// NewService builds a loan ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, assets AssetGuard, metrics opRecorder, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset guard required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:    repo,
		tx:      tx,
		assets:  assets,
		metrics: metrics,
		loc:     loc,
		now:     time.Now,
	}, nil
}

// validated holds the normalized loan fields after input checks.
type validated struct {
	borrowerName string
	item         string
	dueOn        *time.Time
}

func (s *service) validateInput(input LoanInput) (*validated, error) {
	out := &validated{
		borrowerName: strings.TrimSpace(input.BorrowerName),
		item:         strings.TrimSpace(input.Item),
	}
	if out.borrowerName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower name is required")
	}
	if out.item == "" && input.StockItemID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is required")
	}
	if strings.TrimSpace(input.DueDate) != "" {
		due, err := dates.ParseDueDate(input.DueDate)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		out.dueOn = &due
	}
	return out, nil
}

func (s *service) CreateLoan(ctx context.Context, actor auth.Actor, input LoanInput) (*LoanView, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	fields, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	var created *models.Loan
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.PCID != nil {
			if err := s.assets.EnsurePCAvailable(ctx, tx, *input.PCID, uuid.Nil); err != nil {
				return err
			}
		}

		itemText := fields.item
		if input.StockItemID != nil {
			stock, err := repo.FindStockItem(ctx, *input.StockItemID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
			}
			// The typed text is the display record; the stock name only
			// backfills an empty field.
			if itemText == "" {
				itemText = stock.Name
			}
		}
		if itemText == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "item is required")
		}

		loan := &models.Loan{
			ID:            uuid.New(),
			BorrowerName:  fields.borrowerName,
			BorrowerPhone: strings.TrimSpace(input.BorrowerPhone),
			ClassLabel:    strings.TrimSpace(input.ClassLabel),
			Item:          itemText,
			Reason:        strings.TrimSpace(input.Reason),
			ValueLabel:    strings.TrimSpace(input.ValueLabel),
			CheckoutAt:    s.now().UTC(),
			DueOn:         fields.dueOn,
			UserID:        actor.UserID,
			PCID:          input.PCID,
			StockItemID:   input.StockItemID,
		}
		if _, err := repo.Create(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create loan")
		}

		if input.StockItemID != nil {
			if err := s.assets.AdjustAvailability(ctx, tx, *input.StockItemID, -1); err != nil {
				return err
			}
		}

		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.incOp("create")
	return s.reloadView(ctx, created.ID)
}

func (s *service) GetLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) (*LoanView, error) {
	loan, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	view := s.toView(loan)
	return &view, nil
}

func (s *service) EditLoan(ctx context.Context, actor auth.Actor, id uuid.UUID, input LoanInput) (*LoanView, error) {
	loan, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	fields, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Lifecycle and reference decisions use the locked row, not the
		// pre-transaction load, so a concurrent return or edit cannot slip
		// in between the check and the stock moves.
		current, err := repo.FindByIDForUpdate(ctx, loan.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock loan")
		}

		pcChanged := !uuidPtrEqual(current.PCID, input.PCID)
		if pcChanged && input.PCID != nil {
			if err := s.assets.EnsurePCAvailable(ctx, tx, *input.PCID, current.ID); err != nil {
				return err
			}
		}

		itemText := fields.item
		if input.StockItemID != nil {
			stock, err := repo.FindStockItem(ctx, *input.StockItemID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
			}
			if itemText == "" {
				itemText = stock.Name
			}
		}
		if itemText == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "item is required")
		}

		// Stock moves only while the loan still holds its reservation.
		// Editing a returned loan must not perturb inventory.
		stockChanged := !uuidPtrEqual(current.StockItemID, input.StockItemID)
		if current.Active() && stockChanged {
			if current.StockItemID != nil {
				if err := s.assets.AdjustAvailability(ctx, tx, *current.StockItemID, +1); err != nil {
					return err
				}
			}
			if input.StockItemID != nil {
				if err := s.assets.AdjustAvailability(ctx, tx, *input.StockItemID, -1); err != nil {
					return err
				}
			}
		}

		updates := map[string]any{
			"borrower_name":  fields.borrowerName,
			"borrower_phone": strings.TrimSpace(input.BorrowerPhone),
			"class_label":    strings.TrimSpace(input.ClassLabel),
			"item":           itemText,
			"reason":         strings.TrimSpace(input.Reason),
			"value_label":    strings.TrimSpace(input.ValueLabel),
			"due_on":         fields.dueOn,
			"pc_id":          input.PCID,
			"stock_item_id":  input.StockItemID,
		}
		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update loan")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.incOp("edit")
	return s.reloadView(ctx, loan.ID)
}

func (s *service) ReturnLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ReturnResult, error) {
	loan, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if loan.IsReturned {
		return &ReturnResult{AlreadyReturned: true, Loan: s.toView(loan)}, nil
	}

	alreadyReturned := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The conditional flip serializes concurrent returns on the loan
		// row: zero rows updated means another call closed the loan first
		// and the stock was already released.
		flipped, err := repo.MarkReturned(ctx, loan.ID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark loan returned")
		}
		if !flipped {
			alreadyReturned = true
			return nil
		}

		current, err := repo.FindByID(ctx, loan.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload loan")
		}
		if current.StockItemID != nil {
			if err := s.assets.AdjustAvailability(ctx, tx, *current.StockItemID, +1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.reloadView(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	if alreadyReturned {
		return &ReturnResult{AlreadyReturned: true, Loan: *view}, nil
	}

	s.incOp("return")
	return &ReturnResult{Loan: *view}, nil
}

func (s *service) DeleteLoan(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.Known() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// An active loan still holds its reservation; release before removal.
		// A returned loan was already released at return time. Activeness is
		// decided on the locked row so a concurrent return cannot cause a
		// double release.
		loan, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock loan")
		}

		if loan.Active() && loan.StockItemID != nil {
			if err := s.assets.AdjustAvailability(ctx, tx, *loan.StockItemID, +1); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, loan.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete loan")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.incOp("delete")
	return nil
}

func (s *service) ListLoans(ctx context.Context, actor auth.Actor, filters ListFilters, params pagination.Params) (*LoanList, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch filters.State {
	case "", "active", "returned":
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state must be active or returned")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	loans, err := s.repo.List(ctx, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loans")
	}

	list := &LoanList{Loans: make([]LoanView, 0, len(loans))}
	if len(loans) > limit {
		last := loans[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CheckoutAt: last.CheckoutAt,
			ID:         last.ID,
		})
		loans = loans[:limit]
	}
	today := dates.Today(s.loc, s.now())
	for _, loan := range loans {
		list.Loans = append(list.Loans, s.toViewAt(&loan, today))
	}
	return list, nil
}

func (s *service) FindLastLoanByBorrower(ctx context.Context, actor auth.Actor, name string) (*BorrowerDefaults, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "borrower name is required")
	}

	loan, err := s.repo.FindLastByBorrower(ctx, trimmed)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no loans for borrower")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find borrower loan")
	}

	return &BorrowerDefaults{
		BorrowerName:  loan.BorrowerName,
		BorrowerPhone: loan.BorrowerPhone,
		ClassLabel:    loan.ClassLabel,
		Item:          loan.Item,
		PCID:          loan.PCID,
	}, nil
}

// findOwned loads the loan and enforces the owner-or-admin rule shared by
// get, edit and return.
func (s *service) findOwned(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Loan, error) {
	if !actor.Known() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loan")
	}
	if !actor.IsAdmin && loan.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "loan belongs to another user")
	}
	return loan, nil
}

func (s *service) reloadView(ctx context.Context, id uuid.UUID) (*LoanView, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload loan")
	}
	view := s.toView(loan)
	return &view, nil
}

func (s *service) toView(loan *models.Loan) LoanView {
	return s.toViewAt(loan, dates.Today(s.loc, s.now()))
}

func (s *service) toViewAt(loan *models.Loan, today time.Time) LoanView {
	view := LoanView{
		ID:            loan.ID,
		BorrowerName:  loan.BorrowerName,
		BorrowerPhone: loan.BorrowerPhone,
		ClassLabel:    loan.ClassLabel,
		Item:          loan.Item,
		Reason:        loan.Reason,
		ValueLabel:    loan.ValueLabel,
		CheckoutAt:    loan.CheckoutAt,
		ReturnedAt:    loan.ReturnedAt,
		IsReturned:    loan.IsReturned,
		Overdue:       loan.OverdueOn(today),
		UserID:        loan.UserID,
		PCID:          loan.PCID,
		StockItemID:   loan.StockItemID,
	}
	if loan.DueOn != nil {
		due := dates.FormatDueDate(*loan.DueOn)
		view.DueOn = &due
	}
	if loan.PC != nil {
		view.PCOKNumber = loan.PC.OKNumber
	}
	if loan.StockItem != nil {
		view.StockItemName = loan.StockItem.Name
	}
	return view
}

func (s *service) incOp(operation string) {
	if s.metrics != nil {
		s.metrics.IncLoanOp(operation)
	}
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
