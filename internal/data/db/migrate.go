package db

import (
	"fmt"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds composite indexes used by overlap checks. The statements are portable
// between postgres and sqlite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_hotel_reservation_room_status", `CREATE INDEX IF NOT EXISTS idx_hotel_reservation_room_status ON hotel_reservation(room_id, status);`},
		{"idx_appointment_vet_status", `CREATE INDEX IF NOT EXISTS idx_appointment_vet_status ON appointment(vet_id, status);`},
		{"idx_order_item_product", `CREATE INDEX IF NOT EXISTS idx_order_item_order_product ON order_item(order_id, product_id);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
