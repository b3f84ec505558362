package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/common"
	"github.com/wyfcoding/ecommerce/internal/payment/domain"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParkedEventModel 未匹配网关事件数据库模型
type ParkedEventModel struct {
	ID            string `gorm:"column:id;primaryKey;type:varchar(36)"`
	EventID       string `gorm:"column:event_id;type:varchar(255);uniqueIndex;not null"`
	Type          string `gorm:"column:type;type:varchar(100);not null"`
	TransactionID string `gorm:"column:transaction_id;type:varchar(255);index"`
	Payload       string `gorm:"column:payload;type:text"`
	Attempts      int    `gorm:"column:attempts;not null;default:1"`
	LastError     string `gorm:"column:last_error;type:varchar(500)"`
	ReceivedAt    time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (ParkedEventModel) TableName() string { return "parked_gateway_events" }

// ParkedEventMySQLRepository 未匹配网关事件仓储实现
type ParkedEventMySQLRepository struct {
	db *gorm.DB
}

// NewParkedEventRepository 创建未匹配事件仓储
func NewParkedEventRepository(db *gorm.DB) domain.ParkedEventRepository {
	return &ParkedEventMySQLRepository{db: db}
}

func (r *ParkedEventMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// Park 同一网关事件只保留一行，重复暂存时累加次数并恢复已解决的行
func (r *ParkedEventMySQLRepository) Park(ctx context.Context, e *domain.ParkedEvent) error {
	m := &ParkedEventModel{
		ID:            e.ID,
		EventID:       e.EventID,
		Type:          e.Type,
		TransactionID: e.TransactionID,
		Payload:       string(e.Payload),
		Attempts:      e.Attempts,
		LastError:     e.LastError,
		ReceivedAt:    e.ReceivedAt,
	}
	err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": e.LastError,
			"updated_at": time.Now(),
			"deleted_at": nil,
		}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("%w: failed to park gateway event: %w", common.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *ParkedEventMySQLRepository) List(ctx context.Context, limit int) ([]*domain.ParkedEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ParkedEventModel
	if err := r.getDB(ctx).Order("received_at, id").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list parked events: %w", common.ErrPersistenceFailure, err)
	}
	events := make([]*domain.ParkedEvent, 0, len(models))
	for i := range models {
		m := &models[i]
		events = append(events, &domain.ParkedEvent{
			ID:            m.ID,
			EventID:       m.EventID,
			Type:          m.Type,
			TransactionID: m.TransactionID,
			Payload:       []byte(m.Payload),
			Attempts:      m.Attempts,
			LastError:     m.LastError,
			ReceivedAt:    m.ReceivedAt,
		})
	}
	return events, nil
}

func (r *ParkedEventMySQLRepository) Resolve(ctx context.Context, id string) error {
	res := r.getDB(ctx).Where("id = ?", id).Delete(&ParkedEventModel{})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to resolve parked event: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("parked event", id)
	}
	return nil
}

func (r *ParkedEventMySQLRepository) MarkAttempt(ctx context.Context, id, reason string) error {
	res := r.getDB(ctx).Model(&ParkedEventModel{}).Where("id = ?", id).Updates(map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	})
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update parked event: %w", common.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("parked event", id)
	}
	return nil
}
