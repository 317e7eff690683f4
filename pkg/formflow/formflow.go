// Package formflow runs the shared create/update form workflow: check a raw
// submission, hand it back for re-rendering if any field fails, otherwise
// persist it once and redirect to the stored entity.
package formflow

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/binder"
)

// Checker sanitizes a submission in place and reports every failing field.
type Checker interface {
	Check(ctx context.Context, i interface{}) (binder.FieldErrors, error)
}

// Locatable is anything with a canonical locator.
type Locatable interface {
	URL() string
}

// Store persists validated values. Replace must return an errcodes.NotFound
// error when the id doesn't exist.
type Store[V any, E Locatable] interface {
	Create(ctx context.Context, v Validated[V]) (E, error)
	Replace(ctx context.Context, id string, v Validated[V]) (E, error)
}

// ErrNotValidated is returned when a store is handed a Validated that no
// Workflow produced, such as the zero value.
var ErrNotValidated = errors.New("value did not come from a form workflow")

// Validated wraps a value built from a submission that passed every check.
// Only a Workflow sets it; the zero value carries nothing usable.
type Validated[V any] struct {
	value V
	ok    bool
}

// Value returns the checked value, or ErrNotValidated for a Validated that
// didn't come from a Workflow.
func (v Validated[V]) Value() (V, error) {
	if !v.ok {
		var zero V
		return zero, ErrNotValidated
	}
	return v.value, nil
}

// AcceptFunc builds the value to persist from a sanitized, passing submission.
type AcceptFunc[R any, V any] func(raw *R) V

// Outcome is the result of a submission: either a rejection carrying the
// sanitized submission and its errors, or a redirect target.
type Outcome[R any] struct {
	Rejected    bool
	Submission  *R
	Errors      binder.FieldErrors
	RedirectURL string
}

// Workflow checks submissions of type R, turns passing ones into V and saves
// them through a Store that returns E.
type Workflow[R any, V any, E Locatable] struct {
	checker Checker
	store   Store[V, E]
	accept  AcceptFunc[R, V]
}

// New returns a Workflow wired to the given checker, store and accept func.
func New[R any, V any, E Locatable](checker Checker, store Store[V, E], accept AcceptFunc[R, V]) *Workflow[R, V, E] {
	return &Workflow[R, V, E]{
		checker: checker,
		store:   store,
		accept:  accept,
	}
}

// SubmitForCreate persists a new entity when raw passes every check.
func (w *Workflow[R, V, E]) SubmitForCreate(ctx context.Context, raw *R) (*Outcome[R], error) {
	validated, rejected, err := w.validate(ctx, raw)
	if err != nil || rejected != nil {
		return rejected, err
	}

	entity, err := w.store.Create(ctx, validated)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return redirectTo[R](entity)
}

// SubmitForUpdate replaces the entity identified by id when raw passes every
// check. The redirect comes from the entity the store returns.
func (w *Workflow[R, V, E]) SubmitForUpdate(ctx context.Context, id string, raw *R) (*Outcome[R], error) {
	validated, rejected, err := w.validate(ctx, raw)
	if err != nil || rejected != nil {
		return rejected, err
	}

	entity, err := w.store.Replace(ctx, id, validated)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return redirectTo[R](entity)
}

func (w *Workflow[R, V, E]) validate(ctx context.Context, raw *R) (Validated[V], *Outcome[R], error) {
	fieldErrs, err := w.checker.Check(ctx, raw)
	if err != nil {
		return Validated[V]{}, nil, errors.WithStack(err)
	}
	if len(fieldErrs) > 0 {
		logger.FromContext(ctx).Debug("form submission rejected", logger.Data{"errors": fieldErrs.Error()})
		return Validated[V]{}, &Outcome[R]{
			Rejected:   true,
			Submission: raw,
			Errors:     fieldErrs,
		}, nil
	}
	return Validated[V]{value: w.accept(raw), ok: true}, nil, nil
}

func redirectTo[R any](entity Locatable) (*Outcome[R], error) {
	url := entity.URL()
	if url == "" {
		return nil, errors.New("persisted entity has no locator")
	}
	return &Outcome[R]{RedirectURL: url}, nil
}
