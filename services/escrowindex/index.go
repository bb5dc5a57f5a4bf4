// Package escrowindex keeps a queryable sqlite view of escrow lifecycles,
// fed by the committed events of the ledger runtime.
package escrowindex

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"escrowswap/core/events"
	"escrowswap/core/types"
	"escrowswap/native/escrow"
)

// Status is the lifecycle state of an indexed escrow.
type Status string

const (
	StatusOpen     Status = "open"
	StatusTaken    Status = "taken"
	StatusRefunded Status = "refunded"
)

// ErrNotFound is returned when no escrow is indexed under an address.
var ErrNotFound = errors.New("escrowindex: escrow not found")

// Escrow is one lifecycle of an escrow address. An address can be reused
// once its previous escrow closed, so several rows may share it.
type Escrow struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Address        string     `gorm:"size:44;index" json:"address"`
	Vault          string     `gorm:"size:44" json:"vault"`
	Maker          string     `gorm:"size:44;index" json:"maker"`
	Taker          string     `gorm:"size:44" json:"taker,omitempty"`
	MintA          string     `gorm:"size:44" json:"mintA"`
	MintB          string     `gorm:"size:44" json:"mintB"`
	ReceiveAccount string     `gorm:"size:44" json:"receiveAccount"`
	Amount         string     `gorm:"size:20" json:"amount"`
	Seed           string     `gorm:"size:20" json:"seed"`
	Status         Status     `gorm:"size:16;index" json:"status"`
	Sequence       uint64     `gorm:"index" json:"sequence"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Maker  string
	Status Status
	Limit  int
}

// Index persists escrow events. It implements events.Emitter.
type Index struct {
	db     *gorm.DB
	mu     sync.Mutex
	seq    uint64
	logger *slog.Logger
}

// Open initialises the index at the given sqlite DSN.
func Open(dsn string) (*Index, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("escrowindex: path must be configured")
	}
	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Escrow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	idx := &Index{db: db, logger: slog.Default()}
	var last Escrow
	err = db.Order("sequence desc").Limit(1).Find(&last).Error
	if err != nil {
		return nil, fmt.Errorf("load sequence: %w", err)
	}
	idx.seq = last.Sequence
	return idx, nil
}

// SetLogger overrides the logger used to report persistence failures.
func (i *Index) SetLogger(l *slog.Logger) {
	if l != nil {
		i.logger = l
	}
}

// Close releases the underlying connection pool.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Emit implements events.Emitter. Failures are logged; the ledger is the
// source of truth and the index can be rebuilt from it.
func (i *Index) Emit(evt events.Event) {
	e, ok := evt.(*types.Event)
	if !ok {
		return
	}
	if err := i.Apply(e); err != nil {
		i.logger.Error("escrow index update failed",
			slog.String("event", e.Type),
			slog.String("escrow", e.Attr("escrow")),
			slog.Any("error", err))
	}
}

// Apply records a single escrow event. Unrelated events are ignored.
func (i *Index) Apply(e *types.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch e.Type {
	case escrow.EventTypeMade:
		return i.recordMade(e)
	case escrow.EventTypeTaken:
		return i.recordClosed(e, StatusTaken)
	case escrow.EventTypeRefunded:
		return i.recordClosed(e, StatusRefunded)
	default:
		return nil
	}
}

func (i *Index) recordMade(e *types.Event) error {
	address := e.Attr("escrow")
	if address == "" {
		return fmt.Errorf("%s event missing escrow address", e.Type)
	}
	row := Escrow{
		ID:             uuid.New(),
		Address:        address,
		Vault:          e.Attr("vault"),
		Maker:          e.Attr("maker"),
		MintA:          e.Attr("mintA"),
		MintB:          e.Attr("mintB"),
		ReceiveAccount: e.Attr("receiveAccount"),
		Amount:         e.Attr("amount"),
		Seed:           e.Attr("seed"),
		Status:         StatusOpen,
		Sequence:       i.seq + 1,
	}
	if err := i.db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert escrow: %w", err)
	}
	i.seq++
	return nil
}

func (i *Index) recordClosed(e *types.Event, status Status) error {
	address := e.Attr("escrow")
	if address == "" {
		return fmt.Errorf("%s event missing escrow address", e.Type)
	}
	return i.db.Transaction(func(tx *gorm.DB) error {
		var row Escrow
		err := tx.Where("address = ? AND status = ?", address, StatusOpen).
			Order("sequence desc").First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no open escrow at %s", address)
		}
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":    status,
			"closed_at": &now,
		}
		if taker := e.Attr("taker"); taker != "" {
			updates["taker"] = taker
		}
		return tx.Model(&row).Updates(updates).Error
	})
}

// Get returns the most recent escrow indexed at address.
func (i *Index) Get(address string) (*Escrow, error) {
	var row Escrow
	err := i.db.Where("address = ?", address).Order("sequence desc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountOpen returns how many indexed escrows are still open.
func (i *Index) CountOpen() (int64, error) {
	var n int64
	err := i.db.Model(&Escrow{}).Where("status = ?", StatusOpen).Count(&n).Error
	return n, err
}

// List returns indexed escrows, newest first.
func (i *Index) List(f Filter) ([]Escrow, error) {
	q := i.db.Model(&Escrow{}).Order("sequence desc")
	if f.Maker != "" {
		q = q.Where("maker = ?", f.Maker)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []Escrow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
