package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// CatalogService defines the catalog API operations used by the admin UI.
type CatalogService interface {
	// GetCatalog returns one page of products.
	GetCatalog(ctx context.Context, q ListQuery) (*domain.PaginatedResponse[domain.Product], error)

	// GetProduct returns a product by ID.
	// Returns domain.ENOTFOUND if the product does not exist.
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// GetProductBySubdomain returns the product published under subdomain.
	GetProductBySubdomain(ctx context.Context, subdomain string) (*domain.Product, error)

	// NewProduct creates a product and returns it as stored.
	NewProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)

	// UpdateProduct replaces a product and returns it as stored.
	UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)

	// DeleteProduct deletes a product by ID.
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// CompanyService provides the tenant reference list.
type CompanyService interface {
	// GetCompanies lists tenants. A nil query returns the full list.
	GetCompanies(ctx context.Context, q *ListQuery) ([]domain.Company, error)
}

// =============================================================================
// Implementation
// =============================================================================

const (
	catalogPath   = "/api/catalog"
	companiesPath = "/api/companies"
)

type catalogService struct {
	client *Client
}

// NewCatalogService creates a CatalogService backed by client.
func NewCatalogService(client *Client) CatalogService {
	return &catalogService{client: client}
}

type productBody struct {
	Product *domain.Product `json:"product"`
}

func (s *catalogService) GetCatalog(ctx context.Context, q ListQuery) (*domain.PaginatedResponse[domain.Product], error) {
	const op = "catalog.list"

	env, err := s.client.do(ctx, op, http.MethodGet, catalogPath, q.Values(), nil)
	if err != nil {
		return nil, err
	}

	resp := &domain.PaginatedResponse[domain.Product]{Pages: env.Pages}
	if err := decodeInto(op, env.Docs, &resp.Docs); err != nil {
		return nil, err
	}
	if resp.Docs == nil {
		resp.Docs = []domain.Product{}
	}
	return resp, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const op = "catalog.get_product"

	env, err := s.client.do(ctx, op, http.MethodGet, catalogPath+"/"+id.String(), nil, nil)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, domain.NotFound(op, "product", id.String())
		}
		return nil, err
	}
	return decodeProduct(op, env, id.String())
}

func (s *catalogService) GetProductBySubdomain(ctx context.Context, subdomain string) (*domain.Product, error) {
	const op = "catalog.get_product_by_subdomain"

	if subdomain == "" {
		return nil, domain.Invalid(op, "subdomain is required")
	}
	env, err := s.client.do(ctx, op, http.MethodGet, catalogPath+"/subdomain/"+url.PathEscape(subdomain), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeProduct(op, env, subdomain)
}

func (s *catalogService) NewProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	const op = "catalog.new_product"

	env, err := s.client.do(ctx, op, http.MethodPost, catalogPath, nil, productBody{Product: p})
	if err != nil {
		return nil, err
	}
	return storedOrInput(op, env, p)
}

func (s *catalogService) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	const op = "catalog.update_product"

	if p.IsNew() {
		return nil, domain.Invalid(op, "product ID is required for update")
	}
	env, err := s.client.do(ctx, op, http.MethodPut, catalogPath, nil, productBody{Product: p})
	if err != nil {
		return nil, err
	}
	return storedOrInput(op, env, p)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_product"

	_, err := s.client.do(ctx, op, http.MethodDelete, catalogPath+"/"+id.String(), nil, nil)
	if err != nil && domain.ErrorCode(err) == domain.ENOTFOUND {
		return domain.NotFound(op, "product", id.String())
	}
	return err
}

func decodeProduct(op string, env *envelope, key string) (*domain.Product, error) {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, domain.NotFound(op, "product", key)
	}
	var p domain.Product
	if err := decodeInto(op, env.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// storedOrInput returns the product echoed by the API, falling back to the
// submitted one when the API only acknowledges success.
func storedOrInput(op string, env *envelope, input *domain.Product) (*domain.Product, error) {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return input, nil
	}
	var p domain.Product
	if err := decodeInto(op, env.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// Companies
// =============================================================================

type companyService struct {
	client *Client
}

// NewCompanyService creates a CompanyService backed by client.
func NewCompanyService(client *Client) CompanyService {
	return &companyService{client: client}
}

func (s *companyService) GetCompanies(ctx context.Context, q *ListQuery) ([]domain.Company, error) {
	const op = "company.list"

	var values url.Values
	if q != nil {
		values = q.Values()
	}
	env, err := s.client.do(ctx, op, http.MethodGet, companiesPath, values, nil)
	if err != nil {
		return nil, err
	}

	companies := []domain.Company{}
	if err := decodeInto(op, env.Docs, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// =============================================================================
// Submit Adapter
// =============================================================================

// SaveProduct returns a submit handler that creates new products and
// updates existing ones, reporting API failures as outcome messages.
func SaveProduct(svc CatalogService) func(ctx context.Context, p *domain.Product) domain.SubmitOutcome {
	return func(ctx context.Context, p *domain.Product) domain.SubmitOutcome {
		var err error
		if p.IsNew() {
			_, err = svc.NewProduct(ctx, p)
		} else {
			_, err = svc.UpdateProduct(ctx, p)
		}
		if err != nil {
			return domain.SubmitOutcome{Success: false, Errors: domain.ErrorMessages(err)}
		}
		return domain.SubmitOutcome{Success: true}
	}
}
