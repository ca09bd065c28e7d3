package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/bioshield/lens/internal/core/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements ports.VulnerabilityStore and ports.TrendStore
// using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// VulnerabilityModel is the GORM model for advisory records.
type VulnerabilityModel struct {
	ID               uint      `gorm:"primaryKey"`
	CVEID            string    `gorm:"column:cve_id;uniqueIndex"`
	Description      string    `gorm:"type:text"`
	Source           string
	SeverityScore    *float64
	BioImpactScore   *float64
	HumanImpactScore *float64
	UrgencyLevel     *string   `gorm:"index"`
	AffectedSector   *string   `gorm:"index"`
	IntelNotes       string    `gorm:"type:text"`
	DateDiscovered   time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TrendModel is the GORM model for trend rollups. (Category, Month) is the
// upsert key.
type TrendModel struct {
	ID               uint   `gorm:"primaryKey"`
	Category         string `gorm:"uniqueIndex:idx_trends_category_month"`
	Month            string `gorm:"uniqueIndex:idx_trends_category_month"`
	ChangePercentage *float64
	Notes            string `gorm:"type:text"`
	CreatedAt        time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("failed to enable gorm tracing: %w", err)
	}

	if err := db.AutoMigrate(&VulnerabilityModel{}, &TrendModel{}); err != nil {
		return nil, err
	}

	return &SQLiteAdapter{db: db}, nil
}

// ExistingIDs reports which of the given CVE identifiers already have rows.
func (a *SQLiteAdapter) ExistingIDs(ctx context.Context, cveIDs []string) (map[string]bool, error) {
	known := make(map[string]bool, len(cveIDs))
	if len(cveIDs) == 0 {
		return known, nil
	}

	var found []string
	err := a.db.WithContext(ctx).
		Model(&VulnerabilityModel{}).
		Where("cve_id IN ?", cveIDs).
		Pluck("cve_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	for _, id := range found {
		known[id] = true
	}
	return known, nil
}

// SaveBatch inserts new vulnerabilities in a single transaction. The unique
// index on cve_id is the last line of defense against concurrent duplicates.
func (a *SQLiteAdapter) SaveBatch(ctx context.Context, vulns []domain.Vulnerability) error {
	if len(vulns) == 0 {
		return nil
	}

	models := make([]VulnerabilityModel, len(vulns))
	for i, v := range vulns {
		models[i] = toVulnModel(v)
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(models, 100).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return nil
}

// ListUnclassified returns up to limit records lacking an urgency level.
func (a *SQLiteAdapter) ListUnclassified(ctx context.Context, limit int) ([]domain.Vulnerability, error) {
	var models []VulnerabilityModel
	err := a.db.WithContext(ctx).
		Where("urgency_level IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toVulnDomains(models), nil
}

// SaveClassification writes classification fields keyed by CVE identifier.
func (a *SQLiteAdapter) SaveClassification(ctx context.Context, v *domain.Vulnerability) error {
	updates := map[string]interface{}{
		"bio_impact_score":   v.BioImpactScore,
		"human_impact_score": v.HumanImpactScore,
		"intel_notes":        v.IntelNotes,
		"updated_at":         v.UpdatedAt,
	}
	if v.UrgencyLevel != nil {
		updates["urgency_level"] = string(*v.UrgencyLevel)
	}
	if v.AffectedSector != nil {
		updates["affected_sector"] = string(*v.AffectedSector)
	}

	res := a.db.WithContext(ctx).
		Model(&VulnerabilityModel{}).
		Where("cve_id = ?", v.CVEID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no record with id %s", domain.ErrStore, v.CVEID)
	}
	return nil
}

// ListAll returns all vulnerabilities, newest discovery first.
func (a *SQLiteAdapter) ListAll(ctx context.Context) ([]domain.Vulnerability, error) {
	var models []VulnerabilityModel
	err := a.db.WithContext(ctx).
		Order("date_discovered DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toVulnDomains(models), nil
}

// ListByUrgency returns vulnerabilities with the given urgency level.
func (a *SQLiteAdapter) ListByUrgency(ctx context.Context, level domain.UrgencyLevel) ([]domain.Vulnerability, error) {
	var models []VulnerabilityModel
	err := a.db.WithContext(ctx).
		Where("urgency_level = ?", string(level)).
		Order("date_discovered DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toVulnDomains(models), nil
}

// Search matches keyword as a substring of description or CVE identifier.
func (a *SQLiteAdapter) Search(ctx context.Context, keyword string) ([]domain.Vulnerability, error) {
	pattern := "%" + keyword + "%"
	var models []VulnerabilityModel
	err := a.db.WithContext(ctx).
		Where("description LIKE ? OR cve_id LIKE ?", pattern, pattern).
		Order("date_discovered DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toVulnDomains(models), nil
}

// CountByUrgency returns per-bucket counts for classified records.
func (a *SQLiteAdapter) CountByUrgency(ctx context.Context) (map[domain.UrgencyLevel]int64, error) {
	type bucket struct {
		UrgencyLevel string
		Count        int64
	}
	var buckets []bucket
	err := a.db.WithContext(ctx).
		Model(&VulnerabilityModel{}).
		Select("urgency_level, COUNT(*) as count").
		Where("urgency_level IS NOT NULL").
		Group("urgency_level").
		Scan(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	counts := make(map[domain.UrgencyLevel]int64, len(buckets))
	for _, b := range buckets {
		counts[domain.UrgencyLevel(b.UrgencyLevel)] = b.Count
	}
	return counts, nil
}

// CountAll returns the total number of stored vulnerabilities.
func (a *SQLiteAdapter) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&VulnerabilityModel{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return count, nil
}

// DistinctSectors returns the sectors present on classified records.
func (a *SQLiteAdapter) DistinctSectors(ctx context.Context) ([]domain.Sector, error) {
	var names []string
	err := a.db.WithContext(ctx).
		Model(&VulnerabilityModel{}).
		Where("affected_sector IS NOT NULL").
		Distinct().
		Pluck("affected_sector", &names).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	sectors := make([]domain.Sector, len(names))
	for i, n := range names {
		sectors[i] = domain.Sector(n)
	}
	return sectors, nil
}

// CountBySectorMonth counts records of a sector whose discovery date falls
// within the given YYYY-MM calendar month (UTC).
func (a *SQLiteAdapter) CountBySectorMonth(ctx context.Context, sector domain.Sector, month string) (int64, error) {
	start, end, err := monthBounds(month)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	var count int64
	err = a.db.WithContext(ctx).
		Model(&VulnerabilityModel{}).
		Where("affected_sector = ? AND date_discovered >= ? AND date_discovered < ?",
			string(sector), start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return count, nil
}

// Upsert creates or replaces the trend row keyed by (category, month).
func (a *SQLiteAdapter) Upsert(ctx context.Context, t *domain.Trend) error {
	model := toTrendModel(*t)
	err := a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"change_percentage", "notes"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return nil
}

// ListAllTrends returns all trends, newest month first, then by category.
func (a *SQLiteAdapter) ListAllTrends(ctx context.Context) ([]domain.Trend, error) {
	var models []TrendModel
	err := a.db.WithContext(ctx).
		Order("month DESC, category ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toTrendDomains(models), nil
}

// ListByMonth returns the trends of a single YYYY-MM month.
func (a *SQLiteAdapter) ListByMonth(ctx context.Context, month string) ([]domain.Trend, error) {
	var models []TrendModel
	err := a.db.WithContext(ctx).
		Where("month = ?", month).
		Order("category ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return toTrendDomains(models), nil
}

// Close closes the underlying connection pool.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func monthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = start.UTC()
	return start, start.AddDate(0, 1, 0), nil
}
