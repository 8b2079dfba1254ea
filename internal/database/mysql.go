package database

import (
	"fmt"
	"time"

	"dsty-finder/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// activeOrder mirrors the ranker's total ordering so paginated reads and
// in-memory ranking agree.
const activeOrder = "score DESC, CASE WHEN walk_to_stop_min IS NULL THEN 1 ELSE 0 END, walk_to_stop_min ASC, found_at DESC, id ASC"

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB wraps an existing gorm.DB instance.
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate.
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Listing{},
		&models.RunSummary{},
	)
}

// Upsert inserts or updates a scored listing keyed by id. Unchanged rows are
// left alone so updated_at stays meaningful.
func (gdb *GormDB) Upsert(l *models.Listing) (UpsertResult, error) {
	var existing models.Listing
	result := gdb.db.Where("id = ?", l.ID).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		if err := gdb.db.Create(l).Error; err != nil {
			return "", err
		}
		return UpsertInserted, nil
	} else if result.Error != nil {
		return "", result.Error
	}

	if scoredFieldsEqual(&existing, l) {
		return UpsertUnchanged, nil
	}

	// Keep the original discovery bookkeeping.
	l.CreatedAt = existing.CreatedAt
	l.FoundAt = existing.FoundAt
	if err := gdb.db.Save(l).Error; err != nil {
		return "", err
	}
	return UpsertUpdated, nil
}

// ListActive retrieves active listings in display order.
func (gdb *GormDB) ListActive(limit int) ([]models.Listing, error) {
	var listings []models.Listing
	q := gdb.db.Where("active = ?", true).Order(activeOrder)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&listings).Error
	return listings, err
}

// GetByID retrieves a listing by id.
func (gdb *GormDB) GetByID(id string) (*models.Listing, error) {
	var listing models.Listing
	if err := gdb.db.Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// Stats aggregates the active listings.
func (gdb *GormDB) Stats(budgetMin, budgetMax int) (*Stats, error) {
	stats := &Stats{}
	active := func() *gorm.DB {
		return gdb.db.Model(&models.Listing{}).Where("active = ?", true)
	}

	if err := active().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := active().Where("price_jpy BETWEEN ? AND ?", budgetMin, budgetMax).Count(&stats.InBudget).Error; err != nil {
		return nil, err
	}
	if err := active().Where("walk_to_stop_min IS NOT NULL AND walk_to_stop_min <= 10").Count(&stats.CloseToBus).Error; err != nil {
		return nil, err
	}
	if err := active().Where("parking = ?", models.ParkingYes).Count(&stats.WithParking).Error; err != nil {
		return nil, err
	}

	var avgScore *float64
	if err := active().Select("AVG(score)").Scan(&avgScore).Error; err != nil {
		return nil, err
	}
	if avgScore != nil {
		stats.AvgScore = *avgScore
	}

	var maxScore *int
	if err := active().Select("MAX(score)").Scan(&maxScore).Error; err != nil {
		return nil, err
	}
	if maxScore != nil {
		stats.MaxScore = *maxScore
	}

	var avgWalk *float64
	if err := active().Select("AVG(walk_to_stop_min)").Scan(&avgWalk).Error; err != nil {
		return nil, err
	}
	if avgWalk != nil {
		stats.AvgBusWalk = *avgWalk
	}

	return stats, nil
}

// SaveRunSummary archives one refresh outcome.
func (gdb *GormDB) SaveRunSummary(s *models.RunSummary) error {
	return gdb.db.Create(s).Error
}
