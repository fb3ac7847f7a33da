package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ridgelinevc/portfolio-backend/internal/db"
	"github.com/ridgelinevc/portfolio-backend/internal/errs"
	"github.com/ridgelinevc/portfolio-backend/internal/models"
)

type companyStore struct {
	pool db.Pool
}

func NewCompanyStore(pool db.Pool) *companyStore {
	return &companyStore{pool: pool}
}

func (s *companyStore) Create(ctx context.Context, c *models.Company) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (company_id, name, sector, created_at) VALUES ($1, $2, $3, $4)`,
		c.CompanyID, c.Name, c.Sector, c.CreatedAt)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create company", err)
	}
	return nil
}

func (s *companyStore) Get(ctx context.Context, companyID string) (*models.Company, error) {
	var c models.Company
	err := s.pool.QueryRow(ctx,
		`SELECT company_id, name, sector, created_at FROM companies WHERE company_id = $1`,
		companyID).Scan(&c.CompanyID, &c.Name, &c.Sector, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NewNotFoundError("company not found")
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get company", err)
	}
	return &c, nil
}

const listForInvestorSQL = `
SELECT c.company_id, c.name, c.sector, c.created_at
FROM companies c
JOIN investor_company_relationships r ON r.company_id = c.company_id
WHERE r.investor_id = $1
ORDER BY c.name`

// ListForInvestor returns only the companies the investor is linked to.
func (s *companyStore) ListForInvestor(ctx context.Context, investorID string) ([]*models.Company, error) {
	rows, err := s.pool.Query(ctx, listForInvestorSQL, investorID)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list companies", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.CompanyID, &c.Name, &c.Sector, &c.CreatedAt); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to scan company", err)
		}
		companies = append(companies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list companies", err)
	}
	return companies, nil
}

func (s *companyStore) HasAccess(ctx context.Context, investorID, companyID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM investor_company_relationships WHERE investor_id = $1 AND company_id = $2)`,
		investorID, companyID).Scan(&exists)
	if err != nil {
		return false, errs.NewDatabaseError("read", "failed to check company access", err)
	}
	return exists, nil
}

func (s *companyStore) AddRelationship(ctx context.Context, r *models.Relationship) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO investor_company_relationships (investor_id, company_id, role, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (investor_id, company_id) DO UPDATE SET role = EXCLUDED.role`,
		r.InvestorID, r.CompanyID, r.Role, r.CreatedAt)
	if err != nil {
		return errs.NewDatabaseError("write", "failed to link investor to company", err)
	}
	return nil
}
