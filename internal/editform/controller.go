// Package editform drives one edit session for a catalog product.
//
// A Controller owns the draft and its validation state. Activate preloads
// the entity and the role-gated tenant list, then runs one validation pass
// over every draft field so pre-filled data is judged before the user types.
// After that only ChangeInput validates.
//
// A Controller is used by one request or one interactive session at a time
// and is not safe for concurrent use.
package editform

import (
	"context"
	"log/slog"
	"sort"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/metrics"
	"github.com/DukeRupert/catalogadmin/internal/preload"
	"github.com/DukeRupert/catalogadmin/internal/validation"
)

// Preload source names.
const (
	SourceEntity        = "entity"
	SourceReferenceList = "referenceList"
)

// Navigator is the external router.
type Navigator interface {
	GoBack()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) GoBack() { f() }

// SubmitFunc persists the draft and reports the outcome.
type SubmitFunc func(ctx context.Context, p *domain.Product) domain.SubmitOutcome

// EntityLoader fetches the product being edited.
type EntityLoader func(ctx context.Context) (*domain.Product, error)

// ReferenceLoader fetches the tenant list.
type ReferenceLoader func(ctx context.Context) ([]domain.Company, error)

// Config wires a Controller to its collaborators.
type Config struct {
	Draft *domain.Product // Required; owned by the controller from here on
	Role  domain.Role
	Rules *validation.Table // Required

	// LoadEntity is nil when the caller injects a ready draft.
	LoadEntity EntityLoader

	// LoadCompanies is only called for elevated roles.
	LoadCompanies ReferenceLoader

	Submit    SubmitFunc // Required
	Navigator Navigator
	Logger    *slog.Logger
}

// Controller orchestrates one edit session.
type Controller struct {
	draft         *domain.Product
	role          domain.Role
	rules         *validation.Table
	loadEntity    EntityLoader
	loadCompanies ReferenceLoader
	submit        SubmitFunc
	nav           Navigator
	orchestrator  *preload.Orchestrator
	logger        *slog.Logger

	state            validation.State
	companies        []domain.Company
	preloadErrors    []string
	submissionErrors []string
}

// New creates a Controller. The form is fetching until Activate completes.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = NavigatorFunc(func() {})
	}
	return &Controller{
		draft:         cfg.Draft,
		role:          cfg.Role,
		rules:         cfg.Rules,
		loadEntity:    cfg.LoadEntity,
		loadCompanies: cfg.LoadCompanies,
		submit:        cfg.Submit,
		nav:           nav,
		orchestrator:  preload.New(logger),
		logger:        logger,
		state:         cfg.Rules.NewState(),
		companies:     []domain.Company{},
	}
}

// Activate preloads the form's data and runs the initial validation pass.
// Calling it again retries the preload; readiness resets first.
func (c *Controller) Activate(ctx context.Context) preload.Result {
	var entity, companies preload.Fetch
	if c.loadEntity != nil {
		entity = func(ctx context.Context) (any, error) { return c.loadEntity(ctx) }
	}
	if c.loadCompanies != nil {
		companies = func(ctx context.Context) (any, error) { return c.loadCompanies(ctx) }
	}

	res := c.orchestrator.Load(ctx, map[string]preload.Fetch{
		SourceEntity:        preload.When(entity != nil, entity),
		SourceReferenceList: preload.When(c.role.Elevated(), companies),
	})
	c.preloadErrors = res.Errors

	if p, ok := preload.Value[*domain.Product](res, SourceEntity); ok && p != nil {
		c.draft.CopyFieldsFrom(p)
	}
	if list, ok := preload.Value[[]domain.Company](res, SourceReferenceList); ok && list != nil {
		c.companies = list
	}

	c.validateAll()

	c.logger.Debug("edit form activated",
		"product_id", c.draft.ID,
		"role", c.role,
		"reference_list", res.Status(SourceReferenceList).String(),
		"form_valid", c.state.FormValid,
	)
	return res
}

// validateAll routes every draft field through the rule table once.
func (c *Controller) validateAll() {
	fields := c.draft.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c.state = c.rules.Validate(c.state, name, fields[name])
	}
}

// ChangeInput applies one field edit. The draft is mutated before
// validation runs, and any server-side submission errors are cleared.
func (c *Controller) ChangeInput(field, value string) {
	c.draft.Set(field, value)
	c.submissionErrors = nil
	c.state = c.rules.Validate(c.state, field, value)
}

// Submit forwards the draft to the submit handler if the form is valid.
//
// A blocked submit returns a *domain.ValidationError listing the failing
// fields and never reaches the handler. Handler failures are not returned as
// errors; they are reported in the outcome and kept in SubmissionErrors.
func (c *Controller) Submit(ctx context.Context) (domain.SubmitOutcome, error) {
	const op = "editform.submit"

	if c.IsFetching() || len(c.preloadErrors) > 0 {
		metrics.Submission("blocked")
		return domain.SubmitOutcome{}, domain.Unavailable(nil, op, "The form cannot be saved until its data has loaded.")
	}
	if !c.state.FormValid {
		metrics.Submission("blocked")
		return domain.SubmitOutcome{}, c.invalidFieldsError(op)
	}

	outcome := c.submit(ctx, c.draft)
	if !outcome.Success {
		if len(outcome.Errors) == 0 {
			outcome.Errors = []string{"The product could not be saved."}
		}
		c.submissionErrors = outcome.Errors
		metrics.Submission("failed")
		c.logger.Warn("product submission failed", "product_id", c.draft.ID, "errors", outcome.Errors)
		return outcome, nil
	}

	c.submissionErrors = nil
	metrics.Submission("success")
	c.logger.Info("product saved", "product_id", c.draft.ID, "new", c.draft.IsNew())
	return outcome, nil
}

func (c *Controller) invalidFieldsError(op string) *domain.ValidationError {
	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string)}
	for name, f := range c.state.Fields {
		if !f.Valid {
			ve.Fields[name] = f.Message
		}
	}
	return ve
}

// Cancel asks the router to navigate back. Local state is left as is.
func (c *Controller) Cancel() {
	c.nav.GoBack()
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the current validation state.
func (c *Controller) State() validation.State { return c.state }

// Draft returns the product being edited.
func (c *Controller) Draft() *domain.Product { return c.draft }

// Role returns the actor role the session was built for.
func (c *Controller) Role() domain.Role { return c.role }

// Companies returns the tenant list, empty when skipped or failed.
func (c *Controller) Companies() []domain.Company { return c.companies }

// PreloadErrors returns the messages of failed preload sources.
func (c *Controller) PreloadErrors() []string { return c.preloadErrors }

// SubmissionErrors returns the submit handler's messages from the last
// failed submit, until the next edit.
func (c *Controller) SubmissionErrors() []string { return c.submissionErrors }

// IsFetching reports whether the preload has not settled yet.
func (c *Controller) IsFetching() bool { return c.orchestrator.IsFetching() }

// Disabled reports whether the form should reject input: still loading, or
// a preload source failed.
func (c *Controller) Disabled() bool {
	return c.IsFetching() || len(c.preloadErrors) > 0
}

// CanSubmit reports whether the submit control is enabled.
func (c *Controller) CanSubmit() bool {
	return !c.Disabled() && c.state.FormValid
}

// FieldError returns the message to show under field, or "".
func (c *Controller) FieldError(field string) string {
	if f, ok := c.state.Field(field); ok && f.ShowError() {
		return f.Message
	}
	return ""
}
