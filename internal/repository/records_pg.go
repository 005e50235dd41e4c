package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPolymarket/whaleledger/internal/keys"
)

// PostgresStore keeps every record in one table keyed by derived slot. Each
// atomic unit is a database transaction and reads inside it take row locks,
// which gives per-record single-writer semantics.
type PostgresStore struct {
	db *gorm.DB
}

type recordRow struct {
	Key       string    `gorm:"primaryKey;size:66"`
	Kind      string    `gorm:"size:32;not null;index:idx_ledger_records_kind_created,priority:1"`
	Bump      uint8     `gorm:"not null"`
	Data      string    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"index:idx_ledger_records_kind_created,priority:2"`
	UpdatedAt time.Time
}

func (recordRow) TableName() string {
	return "ledger_records"
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	return getRow(s.db.WithContext(ctx), slot, kind)
}

func (s *PostgresStore) List(ctx context.Context, kind Kind, limit, offset int) ([]*Record, error) {
	limit, offset = normalizePage(limit, offset)
	var rows []recordRow
	err := s.db.WithContext(ctx).
		Where("kind = ?", string(kind)).
		Order("created_at ASC, key ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toRecord())
	}
	return out, nil
}

func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&pgTx{db: gtx})
	})
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) Get(_ context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	return getRow(t.db.Clauses(clause.Locking{Strength: "UPDATE"}), slot, kind)
}

func (t *pgTx) View(_ context.Context, slot keys.Slot, kind Kind) (*Record, error) {
	return getRow(t.db.Clauses(clause.Locking{Strength: "SHARE"}), slot, kind)
}

func (t *pgTx) Create(ctx context.Context, slot keys.Slot, kind Kind, data []byte) error {
	if _, err := t.Get(ctx, slot, kind); err == nil || errors.Is(err, ErrKindMismatch) {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	row := recordRow{
		Key:  slot.Address.Hex(),
		Kind: string(kind),
		Bump: slot.Bump,
		Data: string(data),
	}
	if err := t.db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (t *pgTx) Update(_ context.Context, slot keys.Slot, kind Kind, data []byte) error {
	res := t.db.Model(&recordRow{}).
		Where("key = ? AND kind = ?", slot.Address.Hex(), string(kind)).
		Updates(map[string]any{"data": string(data), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) Delete(_ context.Context, slot keys.Slot, kind Kind) error {
	res := t.db.Where("key = ? AND kind = ?", slot.Address.Hex(), string(kind)).Delete(&recordRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func getRow(db *gorm.DB, slot keys.Slot, kind Kind) (*Record, error) {
	var row recordRow
	err := db.Where("key = ?", slot.Address.Hex()).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if row.Kind != string(kind) {
		return nil, ErrKindMismatch
	}
	return row.toRecord(), nil
}

func (r *recordRow) toRecord() *Record {
	return &Record{
		Slot:      keys.Slot{Address: common.HexToHash(r.Key), Bump: r.Bump},
		Kind:      Kind(r.Kind),
		Data:      []byte(r.Data),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
