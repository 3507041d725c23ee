package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

const maxSearchRows = 100

// Search executes a structured read-only query against the graph. The
// query is built from whitelisted filters only, so arbitrary predicates
// (and any mutation) are inexpressible.
func (s *SQLiteGraphStore) Search(ctx context.Context, q domain.GraphQuery) ([]map[string]interface{}, error) {
	limit := q.Limit
	if limit <= 0 || limit > maxSearchRows {
		limit = maxSearchRows
	}

	switch q.Label {
	case domain.GroupDomain:
		return s.searchDomains(ctx, q, limit)
	case domain.GroupSubdomain:
		return s.searchSubdomains(ctx, q, limit)
	case domain.GroupService, "":
		return s.searchServices(ctx, q, limit)
	default:
		return nil, fmt.Errorf("unknown graph label %q", q.Label)
	}
}

func (s *SQLiteGraphStore) searchDomains(ctx context.Context, q domain.GraphQuery, limit int) ([]map[string]interface{}, error) {
	tx := s.db.WithContext(ctx).Model(&DomainModel{})
	if q.DomainName != "" {
		tx = tx.Where("name LIKE ?", "%"+strings.ToLower(q.DomainName)+"%")
	}

	if q.Count {
		var n int64
		if err := tx.Count(&n).Error; err != nil {
			return nil, err
		}
		return []map[string]interface{}{{"count": n}}, nil
	}

	var models []DomainModel
	if err := tx.Order("name").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, len(models))
	for i, m := range models {
		rows[i] = map[string]interface{}{
			"name":   m.Name,
			"source": m.Source,
		}
	}
	return rows, nil
}

func (s *SQLiteGraphStore) searchSubdomains(ctx context.Context, q domain.GraphQuery, limit int) ([]map[string]interface{}, error) {
	tx := s.db.WithContext(ctx).Model(&SubdomainModel{})
	if q.DomainName != "" {
		tx = tx.Where("parent_domain = ?", strings.ToLower(q.DomainName))
	}
	if q.URLContains != "" {
		tx = tx.Where("fqdn LIKE ?", "%"+strings.ToLower(q.URLContains)+"%")
	}

	if q.Count {
		var n int64
		if err := tx.Count(&n).Error; err != nil {
			return nil, err
		}
		return []map[string]interface{}{{"count": n}}, nil
	}

	var models []SubdomainModel
	if err := tx.Order("fqdn").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, len(models))
	for i, m := range models {
		rows[i] = map[string]interface{}{
			"fqdn":          m.FQDN,
			"parent_domain": m.ParentDomain,
		}
	}
	return rows, nil
}

func (s *SQLiteGraphStore) searchServices(ctx context.Context, q domain.GraphQuery, limit int) ([]map[string]interface{}, error) {
	tx := s.db.WithContext(ctx).Model(&WebServiceModel{})
	if q.URLContains != "" {
		tx = tx.Where("url LIKE ?", "%"+q.URLContains+"%")
	}
	if q.ServerContains != "" {
		tx = tx.Where("server LIKE ?", "%"+q.ServerContains+"%")
	}
	if q.TitleContains != "" {
		tx = tx.Where("title LIKE ?", "%"+q.TitleContains+"%")
	}
	if q.DomainName != "" {
		tx = tx.Where("subdomain_fqdn LIKE ?", "%"+strings.ToLower(q.DomainName))
	}
	if q.MinScore != nil {
		tx = tx.Where("risk_score IS NOT NULL AND risk_score >= ?", *q.MinScore)
	}
	if q.MaxScore != nil {
		tx = tx.Where("risk_score IS NOT NULL AND risk_score <= ?", *q.MaxScore)
	}

	if q.Count {
		var n int64
		if err := tx.Count(&n).Error; err != nil {
			return nil, err
		}
		return []map[string]interface{}{{"count": n}}, nil
	}

	if q.OrderByRisk {
		tx = tx.Order("risk_score DESC")
	} else {
		tx = tx.Order("url")
	}

	var models []WebServiceModel
	if err := tx.Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	rows := make([]map[string]interface{}, len(models))
	for i, m := range models {
		svc := serviceToEntity(m)
		row := map[string]interface{}{
			"url":         svc.URL,
			"subdomain":   svc.SubdomainFQDN,
			"status_code": svc.StatusCode,
		}
		if svc.Server != nil {
			row["server"] = *svc.Server
		}
		if svc.Title != nil {
			row["title"] = *svc.Title
		}
		if len(svc.Technologies) > 0 {
			row["technologies"] = svc.Technologies
		}
		if svc.RiskScore != nil {
			row["risk_score"] = *svc.RiskScore
		}
		rows[i] = row
	}
	return rows, nil
}
