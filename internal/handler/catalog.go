// Package handler contains HTTP handlers for the catalog admin shell.
//
// This file implements the catalog table page and the product create, edit
// and delete flows. Each form request runs one edit session: preload, the
// initial validation pass, the posted field changes, then the gated submit.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/DukeRupert/catalogadmin/internal/auth"
	"github.com/DukeRupert/catalogadmin/internal/csrf"
	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/editform"
	"github.com/DukeRupert/catalogadmin/internal/pagination"
	"github.com/DukeRupert/catalogadmin/internal/preload"
	"github.com/DukeRupert/catalogadmin/internal/remote"
	"github.com/DukeRupert/catalogadmin/internal/tablequery"
	"github.com/DukeRupert/catalogadmin/internal/validation"
	"github.com/google/uuid"
)

const (
	catalogPath       = "/catalog"
	filterInputPrefix = "f_"
)

// =============================================================================
// Template Data Types
// =============================================================================

// Column is one catalog table column.
type Column struct {
	Field    string // Sort and filter key sent to the API
	Header   string
	Sortable bool
}

// CatalogColumns lists the catalog table columns in display order.
var CatalogColumns = []Column{
	{Field: domain.FieldSKU, Header: "SKU", Sortable: true},
	{Field: domain.FieldTitle, Header: "Title", Sortable: true},
	{Field: domain.FieldCondition, Header: "Condition", Sortable: true},
	{Field: domain.FieldInStock, Header: "In Stock", Sortable: true},
	{Field: domain.FieldUnitCost, Header: "Unit Cost", Sortable: true},
	{Field: "name", Header: "Tenant", Sortable: true},
	{Field: "id", Header: "Action"},
}

// ColumnView is a column as rendered for the current table state.
type ColumnView struct {
	Column
	SortURL       string
	SortDirection string
	FilterValue   string
}

// CatalogListPageData contains data for the catalog table page.
type CatalogListPageData struct {
	CurrentPath string
	Actor       *auth.Actor
	Columns     []ColumnView
	Rows        []domain.Product
	Pagination  pagination.Data
	State       tablequery.State
	Errors      []string
	CSRFToken   string
}

// FormField is one rendered input of the product form.
type FormField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
}

// CatalogFormPageData contains data for the product create/edit form.
type CatalogFormPageData struct {
	CurrentPath      string
	Actor            *auth.Actor
	Action           string
	IsEdit           bool
	Fields           []FormField
	ShowCompany      bool
	Company          FormField
	Companies        []domain.Company
	PreloadErrors    []string
	SubmissionErrors []string
	Disabled         bool
	CanSubmit        bool
	CSRFToken        string
}

// fieldLabels holds the label and input type of each editable field.
var fieldLabels = map[string][2]string{
	domain.FieldSKU:       {"SKU", "text"},
	domain.FieldSKULink:   {"SKU Link", "url"},
	domain.FieldTitle:     {"Title", "text"},
	domain.FieldCondition: {"Condition", "text"},
	domain.FieldInStock:   {"In Stock", "number"},
	domain.FieldUnitCost:  {"Unit Cost", "text"},
	domain.FieldCompany:   {"Company", "select"},
}

// =============================================================================
// Handler Configuration
// =============================================================================

// CatalogHandlerConfig wires a CatalogHandler.
type CatalogHandlerConfig struct {
	Catalog   remote.CatalogService
	Companies remote.CompanyService
	Renderer  *Renderer
	Rules     []validation.RuleSpec // Extra rules loaded from the rule file
	PageSize  int
	Logger    *slog.Logger
}

// CatalogHandler handles catalog HTTP requests.
type CatalogHandler struct {
	catalog   remote.CatalogService
	companies remote.CompanyService
	renderer  *Renderer
	rules     []validation.RuleSpec
	pageSize  int
	logger    *slog.Logger

	// lastGood holds the last page each tenant scope fetched successfully,
	// keyed by scopeKey. A failed fetch re-renders it under the errors.
	mu       sync.Mutex
	lastGood map[string]catalogPage
}

// catalogPage is one successfully fetched table page.
type catalogPage struct {
	state     tablequery.State
	rows      []domain.Product
	pageCount int
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cfg CatalogHandlerConfig) *CatalogHandler {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = tablequery.DefaultPageSize
	}
	return &CatalogHandler{
		catalog:   cfg.Catalog,
		companies: cfg.Companies,
		renderer:  cfg.Renderer,
		rules:     cfg.Rules,
		pageSize:  pageSize,
		logger:    cfg.Logger,
		lastGood:  make(map[string]catalogPage),
	}
}

// RegisterRoutes registers the catalog routes behind mw.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, mw func(http.Handler) http.Handler) {
	mux.Handle("GET /catalog", mw(http.HandlerFunc(h.List)))
	mux.Handle("GET /catalog/new", mw(http.HandlerFunc(h.New)))
	mux.Handle("POST /catalog/new", mw(http.HandlerFunc(h.Create)))
	mux.Handle("GET /catalog/edit/{id}", mw(http.HandlerFunc(h.Edit)))
	mux.Handle("POST /catalog/edit/{id}", mw(http.HandlerFunc(h.Update)))
	mux.Handle("POST /catalog/delete/{id}", mw(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// GET /catalog - Catalog Table
// =============================================================================

// List renders one page of the server-driven catalog table.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	query := r.URL.Query()
	state, err := tablequery.ParseState(query, tablequery.DefaultState(h.pageSize))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	state = applyFilterInputs(query, state)

	table := tablequery.NewTable[domain.Product](h.catalog.GetCatalog, state, h.logger)
	fetchErr := table.Fetch(r.Context(), tenantScoped(actor, state))

	if AcceptsJSON(r) {
		if fetchErr != nil {
			ErrorResponse(w, r, h.logger, fetchErr)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"errors":  []string{},
			"docs":    table.Rows(),
			"pages":   table.PageCount(),
		})
		return
	}

	status := http.StatusOK
	page := catalogPage{state: state, rows: table.Rows(), pageCount: table.PageCount()}
	if fetchErr != nil {
		status = ErrorCodeToHTTPStatus(domain.ErrorCode(fetchErr))
		if last, ok := h.lastPage(actor); ok {
			page = last
		}
	} else {
		h.rememberPage(actor, page)
	}

	h.renderer.RenderHTTP(w, status, "catalog/index", CatalogListPageData{
		CurrentPath: r.URL.Path,
		Actor:       actor,
		Columns:     columnViews(page.state),
		Rows:        page.rows,
		Pagination:  pagination.New(catalogPath, page.state, page.pageCount),
		State:       page.state,
		Errors:      table.Errors(),
		CSRFToken:   csrf.Token(r.Context()),
	})
}

// scopeKey identifies the set of products an actor can see.
func scopeKey(actor *auth.Actor) string {
	if actor.CanSeeAllTenants() {
		return "*"
	}
	return "tenant:" + actor.TenantID
}

func (h *CatalogHandler) lastPage(actor *auth.Actor) (catalogPage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.lastGood[scopeKey(actor)]
	return p, ok
}

func (h *CatalogHandler) rememberPage(actor *auth.Actor, p catalogPage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastGood[scopeKey(actor)] = p
}

// tenantScoped pins the list query to the actor's company. A company filter
// supplied by a single-tenant actor is replaced, never combined.
func tenantScoped(actor *auth.Actor, s tablequery.State) tablequery.State {
	if actor.CanSeeAllTenants() {
		return s
	}
	filtered := make([]tablequery.Filter, 0, len(s.Filtered)+1)
	for _, f := range s.Filtered {
		if f.Field != domain.FieldCompany {
			filtered = append(filtered, f)
		}
	}
	s.Filtered = append(filtered, tablequery.Filter{Field: domain.FieldCompany, Value: actor.TenantID})
	return s
}

// ownsProduct reports whether actor may read or change p.
func ownsProduct(actor *auth.Actor, p *domain.Product) bool {
	return actor.CanSeeAllTenants() || p.Company == actor.TenantID
}

// applyFilterInputs folds the per-column filter inputs of the table form
// ("f_<field>") into s. Columns without an input keep their current filter.
func applyFilterInputs(query url.Values, s tablequery.State) tablequery.State {
	for _, c := range CatalogColumns {
		if !c.Sortable {
			continue
		}
		if values, ok := query[filterInputPrefix+c.Field]; ok {
			s = s.WithFilter(c.Field, strings.TrimSpace(firstOrEmpty(values)))
		}
	}
	return s
}

func columnViews(s tablequery.State) []ColumnView {
	views := make([]ColumnView, 0, len(CatalogColumns))
	for _, c := range CatalogColumns {
		v := ColumnView{Column: c}
		if c.Sortable {
			v.SortURL = catalogPath + "?" + s.WithSort(c.Field).Values().Encode()
			v.SortDirection = s.SortDirection(c.Field)
			v.FilterValue = s.FilterValue(c.Field)
		}
		views = append(views, v)
	}
	return views
}

// =============================================================================
// GET /catalog/new, POST /catalog/new - Create Product
// =============================================================================

// New renders an empty product form.
func (h *CatalogHandler) New(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.startSession(w, r, uuid.Nil)
	if !ok {
		return
	}
	h.renderForm(w, r, ctrl, http.StatusOK)
}

// Create applies the posted fields to a new draft and submits it.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, uuid.Nil)
}

// =============================================================================
// GET /catalog/edit/{id}, POST /catalog/edit/{id} - Edit Product
// =============================================================================

// Edit renders the form for an existing product.
func (h *CatalogHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	ctrl, ok := h.startSession(w, r, id)
	if !ok {
		return
	}
	h.renderForm(w, r, ctrl, http.StatusOK)
}

// Update applies the posted fields to the loaded product and submits it.
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}
	h.submit(w, r, id)
}

// =============================================================================
// POST /catalog/delete/{id} - Delete Product
// =============================================================================

// Delete removes a product and returns to the table. Single-tenant actors
// can only delete products of their own company.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if !actor.CanSeeAllTenants() {
		p, err := h.catalog.GetProduct(r.Context(), id)
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		if !ownsProduct(actor, p) {
			h.logger.Warn("cross-tenant delete rejected", "product_id", id, "tenant_id", actor.TenantID)
			NotFoundResponse(w, r, h.logger)
			return
		}
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("product deleted", "product_id", id)

	if AcceptsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "errors": []string{}})
		return
	}
	http.Redirect(w, r, catalogPath, http.StatusSeeOther)
}

// =============================================================================
// Edit Session
// =============================================================================

// redirectNavigator sends the browser back to the catalog table.
type redirectNavigator struct {
	w http.ResponseWriter
	r *http.Request
}

func (n *redirectNavigator) GoBack() {
	if AcceptsJSON(n.r) {
		writeJSON(n.w, http.StatusOK, map[string]any{"success": true, "errors": []string{}, "data": map[string]string{"redirect": catalogPath}})
		return
	}
	http.Redirect(n.w, n.r, catalogPath, http.StatusSeeOther)
}

// newController builds an edit session for the request's actor. A nil id
// starts a new product; otherwise the product is loaded by the entity source.
func (h *CatalogHandler) newController(actor *auth.Actor, id uuid.UUID, nav editform.Navigator) (*editform.Controller, error) {
	const op = "catalog.new_controller"

	rules, err := validation.CatalogRules(actor.Role, h.rules...)
	if err != nil {
		return nil, domain.Internal(err, op, "The validation rules could not be built.")
	}

	draft := &domain.Product{}
	if !actor.CanSeeAllTenants() {
		draft.Company = actor.TenantID
	}

	var loadEntity editform.EntityLoader
	if id != uuid.Nil {
		loadEntity = func(ctx context.Context) (*domain.Product, error) {
			p, err := h.catalog.GetProduct(ctx, id)
			if err != nil {
				return nil, err
			}
			if !ownsProduct(actor, p) {
				h.logger.Warn("cross-tenant edit rejected", "product_id", id, "tenant_id", actor.TenantID)
				return nil, domain.NotFound("catalog.load_product", "product", id.String())
			}
			if p.ID == uuid.Nil {
				p.ID = id
			}
			return p, nil
		}
	}

	return editform.New(editform.Config{
		Draft:      draft,
		Role:       actor.Role,
		Rules:      rules,
		LoadEntity: loadEntity,
		LoadCompanies: func(ctx context.Context) ([]domain.Company, error) {
			return h.companies.GetCompanies(ctx, nil)
		},
		Submit:    remote.SaveProduct(h.catalog),
		Navigator: nav,
		Logger:    h.logger.With("product_id", id),
	}), nil
}

// startSession creates and activates an edit session, writing an error
// response and returning false when the product cannot be edited at all.
func (h *CatalogHandler) startSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*editform.Controller, bool) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return nil, false
	}

	ctrl, err := h.newController(actor, id, &redirectNavigator{w: w, r: r})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return nil, false
	}

	res := ctrl.Activate(r.Context())
	if id != uuid.Nil && res.Status(editform.SourceEntity) != preload.StatusLoaded {
		// Without the product there is nothing to edit.
		if res.Err == nil {
			NotFoundResponse(w, r, h.logger)
		} else {
			ErrorResponse(w, r, h.logger, res.Err)
		}
		return nil, false
	}
	return ctrl, true
}

// submit runs one full edit session for a POSTed form.
func (h *CatalogHandler) submit(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctrl, ok := h.startSession(w, r, id)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("catalog.submit", "Invalid form submission."))
		return
	}

	if r.PostForm.Get("action") == "cancel" {
		ctrl.Cancel()
		return
	}

	for _, field := range domain.ProductFields {
		if field == domain.FieldCompany && !ctrl.Role().Elevated() {
			// Standard admins cannot move products between tenants.
			continue
		}
		if values, present := r.PostForm[field]; present {
			ctrl.ChangeInput(field, firstOrEmpty(values))
		}
	}

	outcome, err := ctrl.Submit(r.Context())
	if err != nil {
		if AcceptsJSON(r) {
			if domain.ErrorCode(err) == domain.EINVALID {
				ValidationErrorResponse(w, r, h.logger, err)
				return
			}
			ErrorResponse(w, r, h.logger, err)
			return
		}
		status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
		if status == http.StatusBadRequest {
			status = http.StatusUnprocessableEntity
		}
		h.renderForm(w, r, ctrl, status)
		return
	}

	if !outcome.Success {
		if AcceptsJSON(r) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"success": false, "errors": outcome.Errors})
			return
		}
		h.renderForm(w, r, ctrl, http.StatusUnprocessableEntity)
		return
	}

	if AcceptsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "errors": []string{}, "data": ctrl.Draft()})
		return
	}
	http.Redirect(w, r, catalogPath, http.StatusSeeOther)
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// =============================================================================
// Form Rendering
// =============================================================================

// formJSON is the JSON view of an edit session.
type formJSON struct {
	Success          bool              `json:"success"`
	Errors           []string          `json:"errors"`
	Data             *domain.Product   `json:"data"`
	Companies        []domain.Company  `json:"companies"`
	FieldErrors      map[string]string `json:"fieldErrors"`
	FormValid        bool              `json:"formValid"`
	CanSubmit        bool              `json:"canSubmit"`
	SubmissionErrors []string          `json:"submissionErrors"`
}

func (h *CatalogHandler) renderForm(w http.ResponseWriter, r *http.Request, ctrl *editform.Controller, status int) {
	state := ctrl.State()

	if AcceptsJSON(r) {
		errs := ctrl.PreloadErrors()
		if errs == nil {
			errs = []string{}
		}
		writeJSON(w, status, formJSON{
			Success:          len(errs) == 0,
			Errors:           errs,
			Data:             ctrl.Draft(),
			Companies:        ctrl.Companies(),
			FieldErrors:      state.VisibleErrors(),
			FormValid:        state.FormValid,
			CanSubmit:        ctrl.CanSubmit(),
			SubmissionErrors: ctrl.SubmissionErrors(),
		})
		return
	}

	draft := ctrl.Draft()
	data := CatalogFormPageData{
		CurrentPath:      r.URL.Path,
		Actor:            auth.GetActorFromRequest(r),
		Action:           r.URL.Path,
		IsEdit:           !draft.IsNew(),
		ShowCompany:      ctrl.Role().Elevated(),
		Companies:        ctrl.Companies(),
		PreloadErrors:    ctrl.PreloadErrors(),
		SubmissionErrors: ctrl.SubmissionErrors(),
		Disabled:         ctrl.Disabled(),
		CanSubmit:        ctrl.CanSubmit(),
		CSRFToken:        csrf.Token(r.Context()),
	}

	for _, name := range domain.ProductFields {
		value, _ := draft.Get(name)
		_, ruled := state.Field(name)
		f := FormField{
			Name:     name,
			Label:    fieldLabels[name][0],
			Type:     fieldLabels[name][1],
			Value:    value,
			Error:    ctrl.FieldError(name),
			Required: ruled,
		}
		if name == domain.FieldCompany {
			data.Company = f
			continue
		}
		data.Fields = append(data.Fields, f)
	}

	h.renderer.RenderHTTP(w, status, "catalog/form", data)
}
