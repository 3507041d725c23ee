package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

var ErrServiceNotFound = errors.New("web service not found")

// SQLiteGraphStore implements ports.GraphStore using GORM and SQLite.
// The property graph is modeled as three node tables linked by foreign
// keys; all merges are idempotent upserts so repeated scans are safe.
type SQLiteGraphStore struct {
	db *gorm.DB
}

// DomainModel is the GORM model for root Domain nodes.
type DomainModel struct {
	Name         string `gorm:"primaryKey"`
	Source       string
	DiscoveredAt time.Time
}

// SubdomainModel is the GORM model for Subdomain nodes.
// ParentDomain realizes the HAS_SUBDOMAIN edge.
type SubdomainModel struct {
	FQDN         string `gorm:"primaryKey;column:fqdn"`
	ParentDomain string `gorm:"index"`
	DiscoveredAt time.Time
}

// WebServiceModel is the GORM model for WebService nodes.
// SubdomainFQDN realizes the HOSTS edge.
type WebServiceModel struct {
	URL           string `gorm:"primaryKey;column:url"`
	SubdomainFQDN string `gorm:"index;column:subdomain_fqdn"`
	StatusCode    int
	Title         *string
	Server        *string
	Technologies  string // JSON encoded []string
	RiskScore     *int   `gorm:"index"`
	RiskFactors   string // JSON encoded []RiskFactor
	DiscoveredAt  time.Time
}

// NewSQLiteGraphStore opens the database, migrates the schema, and attaches
// query tracing.
func NewSQLiteGraphStore(path string) (*SQLiteGraphStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open graph database: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("failed to attach tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(&DomainModel{}, &SubdomainModel{}, &WebServiceModel{}, &UserModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Indices for the hot query paths
	db.Exec("CREATE INDEX IF NOT EXISTS idx_webservices_risk ON web_service_models(risk_score)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_subdomains_parent ON subdomain_models(parent_domain)")

	return &SQLiteGraphStore{db: db}, nil
}

// MergeDomain creates or updates a root Domain node.
func (s *SQLiteGraphStore) MergeDomain(ctx context.Context, name string, source domain.DiscoverySource) (*domain.Domain, error) {
	model := DomainModel{
		Name:         strings.ToLower(name),
		Source:       string(source),
		DiscoveredAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"source"}),
	}).Create(&model).Error
	if err != nil {
		return nil, fmt.Errorf("failed to merge domain %s: %w", name, err)
	}

	var saved DomainModel
	if err := s.db.WithContext(ctx).First(&saved, "name = ?", model.Name).Error; err != nil {
		return nil, err
	}
	return domainToEntity(saved), nil
}

// MergeSubdomain creates or updates a Subdomain node and its parent link.
// The parent Domain is created on demand with source "scan".
func (s *SQLiteGraphStore) MergeSubdomain(ctx context.Context, fqdn, parentDomain string) (*domain.Subdomain, error) {
	parent := strings.ToLower(parentDomain)
	if _, err := s.MergeDomain(ctx, parent, domain.SourceScan); err != nil {
		return nil, err
	}

	model := SubdomainModel{
		FQDN:         strings.ToLower(fqdn),
		ParentDomain: parent,
		DiscoveredAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fqdn"}},
		DoUpdates: clause.AssignmentColumns([]string{"parent_domain"}),
	}).Create(&model).Error
	if err != nil {
		return nil, fmt.Errorf("failed to merge subdomain %s: %w", fqdn, err)
	}

	var saved SubdomainModel
	if err := s.db.WithContext(ctx).First(&saved, "fqdn = ?", model.FQDN).Error; err != nil {
		return nil, err
	}
	return subdomainToEntity(saved), nil
}

// MergeWebService creates or updates a WebService node keyed by URL. The
// hosting Subdomain is created on demand. Fingerprint fields are always
// refreshed; discovery time is kept from the first observation.
func (s *SQLiteGraphStore) MergeWebService(ctx context.Context, svc domain.WebService) (*domain.WebService, error) {
	fqdn := strings.ToLower(svc.SubdomainFQDN)
	if fqdn != "" {
		sub := SubdomainModel{FQDN: fqdn, DiscoveredAt: time.Now().UTC()}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to merge hosting subdomain %s: %w", fqdn, err)
		}
	}

	model, err := serviceToModel(svc)
	if err != nil {
		return nil, err
	}
	model.SubdomainFQDN = fqdn
	model.DiscoveredAt = time.Now().UTC()

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subdomain_fqdn", "status_code", "title", "server",
			"technologies", "risk_score", "risk_factors",
		}),
	}).Create(&model).Error
	if err != nil {
		return nil, fmt.Errorf("failed to merge webservice %s: %w", svc.URL, err)
	}

	var saved WebServiceModel
	if err := s.db.WithContext(ctx).First(&saved, "url = ?", svc.URL).Error; err != nil {
		return nil, err
	}
	return serviceToEntity(saved), nil
}

// UpdateRiskScore sets score and factors on an existing service.
func (s *SQLiteGraphStore) UpdateRiskScore(ctx context.Context, url string, score int, factorsJSON string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&WebServiceModel{}).
		Where("url = ?", url).
		Updates(map[string]interface{}{"risk_score": score, "risk_factors": factorsJSON})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update risk score for %s: %w", url, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetDomains returns all root domains ordered by name.
func (s *SQLiteGraphStore) GetDomains(ctx context.Context) ([]domain.Domain, error) {
	var models []DomainModel
	if err := s.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	domains := make([]domain.Domain, len(models))
	for i, m := range models {
		domains[i] = *domainToEntity(m)
	}
	return domains, nil
}

// GetSubdomains returns the subdomains of a root domain ordered by FQDN.
func (s *SQLiteGraphStore) GetSubdomains(ctx context.Context, domainName string) ([]domain.Subdomain, error) {
	var models []SubdomainModel
	err := s.db.WithContext(ctx).
		Where("parent_domain = ?", strings.ToLower(domainName)).
		Order("fqdn").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	subs := make([]domain.Subdomain, len(models))
	for i, m := range models {
		subs[i] = *subdomainToEntity(m)
	}
	return subs, nil
}

// GetServicesByRisk returns scored services ordered by risk descending.
func (s *SQLiteGraphStore) GetServicesByRisk(ctx context.Context, minScore, limit int) ([]domain.WebService, error) {
	if limit <= 0 {
		limit = 10
	}
	var models []WebServiceModel
	err := s.db.WithContext(ctx).
		Where("risk_score IS NOT NULL AND risk_score >= ?", minScore).
		Order("risk_score DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return servicesToEntities(models), nil
}

// GetUnscoredServices returns services with no risk score yet.
func (s *SQLiteGraphStore) GetUnscoredServices(ctx context.Context) ([]domain.WebService, error) {
	var models []WebServiceModel
	if err := s.db.WithContext(ctx).Where("risk_score IS NULL").Find(&models).Error; err != nil {
		return nil, err
	}
	return servicesToEntities(models), nil
}

// Stats returns per-label node counts.
func (s *SQLiteGraphStore) Stats(ctx context.Context) (domain.GraphStats, error) {
	var stats domain.GraphStats
	var count int64

	if err := s.db.WithContext(ctx).Model(&DomainModel{}).Count(&count).Error; err != nil {
		return stats, err
	}
	stats.Domains = int(count)

	if err := s.db.WithContext(ctx).Model(&SubdomainModel{}).Count(&count).Error; err != nil {
		return stats, err
	}
	stats.Subdomains = int(count)

	if err := s.db.WithContext(ctx).Model(&WebServiceModel{}).Count(&count).Error; err != nil {
		return stats, err
	}
	stats.WebServices = int(count)

	return stats, nil
}

// Close closes the underlying connection.
func (s *SQLiteGraphStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.GraphStore = (*SQLiteGraphStore)(nil)
