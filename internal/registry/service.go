package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/eliasfjaere/utlaan-backend/pkg/auth"
	"github.com/eliasfjaere/utlaan-backend/pkg/db"
	"github.com/eliasfjaere/utlaan-backend/pkg/db/models"
	pkgerrors "github.com/eliasfjaere/utlaan-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type clampRecorder interface {
	IncStockClamp(bound string)
}

// Service defines asset registry operations.
type Service interface {
	ListPCs(ctx context.Context) ([]PCView, error)
	CreatePC(ctx context.Context, actor auth.Actor, input CreatePCInput) (*PCView, error)
	UpdatePC(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdatePCInput) (*PCView, error)
	DeletePC(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	ListItems(ctx context.Context) ([]ItemView, error)
	CreateItem(ctx context.Context, actor auth.Actor, input CreateItemInput) (*ItemView, error)
	UpdateItem(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateItemInput) (*ItemView, error)
	DeleteItem(ctx context.Context, actor auth.Actor, id uuid.UUID) error

	AdjustAvailability(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, delta int) error
	EnsurePCAvailable(ctx context.Context, tx *gorm.DB, pcID uuid.UUID, excludeLoanID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics clampRecorder
}

// NewService builds a registry service with the required dependencies.
func NewService(repo Repository, tx txRunner, metrics clampRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: metrics}, nil
}

func requireAdmin(actor auth.Actor) error {
	if !actor.Known() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.IsAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required")
	}
	return nil
}

func (s *service) ListPCs(ctx context.Context) ([]PCView, error) {
	pcs, err := s.repo.ListPCs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pcs")
	}
	active, err := s.repo.ActivePCIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active pc loans")
	}

	views := make([]PCView, 0, len(pcs))
	for _, pc := range pcs {
		views = append(views, toPCView(&pc, active[pc.ID]))
	}
	return views, nil
}

func (s *service) CreatePC(ctx context.Context, actor auth.Actor, input CreatePCInput) (*PCView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	okNumber := strings.TrimSpace(input.OKNumber)
	model := strings.TrimSpace(input.Model)
	if okNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ok number is required")
	}
	if model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}

	pc := &models.PCAsset{
		ID:       uuid.New(),
		OKNumber: okNumber,
		Model:    model,
		Notes:    strings.TrimSpace(input.Notes),
	}
	created, err := s.repo.CreatePC(ctx, pc)
	if err != nil {
		if db.IsUniqueViolation(err, "pc_assets_ok_number_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ok number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pc")
	}
	view := toPCView(created, false)
	return &view, nil
}

func (s *service) UpdatePC(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdatePCInput) (*PCView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	okNumber := strings.TrimSpace(input.OKNumber)
	model := strings.TrimSpace(input.Model)
	if okNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ok number is required")
	}
	if model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}

	if _, err := s.repo.FindPC(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pc not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pc")
	}

	updates := map[string]any{
		"ok_number": okNumber,
		"model":     model,
		"notes":     strings.TrimSpace(input.Notes),
	}
	if err := s.repo.UpdatePC(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "pc_assets_ok_number_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ok number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pc")
	}

	pc, err := s.repo.FindPC(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pc")
	}
	activeCount, err := s.repo.CountActiveLoansForPC(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active loans")
	}
	view := toPCView(pc, activeCount > 0)
	return &view, nil
}

func (s *service) DeletePC(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindPC(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pc not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pc")
		}

		active, err := repo.CountActiveLoansForPC(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active loans")
		}
		if active > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete a pc that is loaned out")
		}

		history, err := repo.CountLoansForPC(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count loan history")
		}
		if history > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "pc has loan history, retire it in the notes instead")
		}

		if err := repo.DeletePC(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pc")
		}
		return nil
	})
}

func (s *service) ListItems(ctx context.Context) ([]ItemView, error) {
	items, err := s.repo.ListStockItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock items")
	}
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toItemView(&item))
	}
	return views, nil
}

func (s *service) CreateItem(ctx context.Context, actor auth.Actor, input CreateItemInput) (*ItemView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must not be negative")
	}

	item := &models.StockItem{
		ID:        uuid.New(),
		Name:      name,
		Total:     input.Total,
		Available: input.Total,
	}
	created, err := s.repo.CreateStockItem(ctx, item)
	if err != nil {
		if db.IsUniqueViolation(err, "stock_items_name_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "item name already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock item")
	}
	view := toItemView(created)
	return &view, nil
}

func (s *service) UpdateItem(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateItemInput) (*ItemView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must not be negative")
	}

	var updated models.StockItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.LockStockItem(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock item")
		}

		// A total change shifts the available count by the same delta so the
		// in-use quantity stays stable, clamped into [0, newTotal].
		available := item.Available
		if input.Total != item.Total {
			available = clamp(item.Available+(input.Total-item.Total), 0, input.Total, s.metrics)
		}

		updates := map[string]any{
			"name":      name,
			"total":     input.Total,
			"available": available,
		}
		if err := repo.UpdateStockItem(ctx, id, updates); err != nil {
			if db.IsUniqueViolation(err, "stock_items_name_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "item name already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock item")
		}

		updated = *item
		updated.Name = name
		updated.Total = input.Total
		updated.Available = available
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toItemView(&updated)
	return &view, nil
}

func (s *service) DeleteItem(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindStockItem(ctx, id); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
		}

		refs, err := repo.CountLoansForStockItem(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count item loans")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "item is referenced by loans")
		}

		if err := repo.DeleteStockItem(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock item")
		}
		return nil
	})
}

// AdjustAvailability shifts a stock item's available count by delta inside the
// caller's transaction. The result is clamped into [0, total] rather than
// erroring; a clamp that actually fires is counted, since it points at a
// concurrency or logic defect elsewhere.
func (s *service) AdjustAvailability(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, delta int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}
	if delta == 0 {
		return nil
	}
	repo := s.repo.WithTx(tx)

	item, err := repo.LockStockItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock stock item")
	}

	available := clamp(item.Available+delta, 0, item.Total, s.metrics)
	if available == item.Available {
		return nil
	}
	if err := repo.UpdateStockItem(ctx, itemID, map[string]any{"available": available}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust availability")
	}
	return nil
}

// EnsurePCAvailable locks the PC row and verifies no other active loan holds
// it. Locking the asset row serializes concurrent check-then-reserve attempts
// on the same PC; the partial unique index on loans is the backstop.
func (s *service) EnsurePCAvailable(ctx context.Context, tx *gorm.DB, pcID uuid.UUID, excludeLoanID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for pc reservation")
	}
	repo := s.repo.WithTx(tx)

	if _, err := repo.LockPC(ctx, pcID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pc not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock pc")
	}

	var count int64
	q := tx.WithContext(ctx).
		Model(&models.Loan{}).
		Where("pc_id = ? AND is_returned = ?", pcID, false)
	if excludeLoanID != uuid.Nil {
		q = q.Where("id <> ?", excludeLoanID)
	}
	if err := q.Count(&count).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active pc loans")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "pc is already loaned out")
	}
	return nil
}

func clamp(value, lower, upper int, metrics clampRecorder) int {
	if upper < lower {
		upper = lower
	}
	if value < lower {
		if metrics != nil {
			metrics.IncStockClamp("lower")
		}
		return lower
	}
	if value > upper {
		if metrics != nil {
			metrics.IncStockClamp("upper")
		}
		return upper
	}
	return value
}

func toPCView(pc *models.PCAsset, loanedOut bool) PCView {
	return PCView{
		ID:          pc.ID,
		OKNumber:    pc.OKNumber,
		Model:       pc.Model,
		Notes:       pc.Notes,
		IsLoanedOut: loanedOut,
		CreatedAt:   pc.CreatedAt,
	}
}

func toItemView(item *models.StockItem) ItemView {
	return ItemView{
		ID:        item.ID,
		Name:      item.Name,
		Total:     item.Total,
		Available: item.Available,
		InUse:     item.InUse(),
		LowStock:  item.Total > 0 && item.Available <= LowStockThreshold,
		CreatedAt: item.CreatedAt,
	}
}
