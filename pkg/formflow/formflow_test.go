package formflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string
	Text string
	Due  *time.Time
}

func (n *note) URL() string {
	if n == nil || n.ID == "" {
		return ""
	}
	return "/notes/" + n.ID
}

type noteForm struct {
	Text string `form:"text" mod:"trim,escape" validate:"required" msg:"Text must be specified"`
	Due  string `form:"due" mod:"trim" validate:"omitempty,iso8601" msg:"Invalid date"`
}

type noteValue struct {
	Text string
	Due  *time.Time
}

func acceptNote(raw *noteForm) noteValue {
	v := noteValue{Text: raw.Text}
	if due, ok := binder.ParseDate(raw.Due); ok {
		v.Due = &due
	}
	return v
}

type memStore struct {
	notes    map[string]*note
	creates  int
	replaces int
	failWith error
}

func newMemStore() *memStore {
	return &memStore{notes: map[string]*note{}}
}

func (s *memStore) Create(_ context.Context, v Validated[noteValue]) (*note, error) {
	s.creates++
	if s.failWith != nil {
		return nil, s.failWith
	}
	value, err := v.Value()
	if err != nil {
		return nil, err
	}
	n := &note{ID: fmt.Sprintf("n%d", len(s.notes)+1), Text: value.Text, Due: value.Due}
	s.notes[n.ID] = n
	return n, nil
}

func (s *memStore) Replace(_ context.Context, id string, v Validated[noteValue]) (*note, error) {
	s.replaces++
	if s.failWith != nil {
		return nil, s.failWith
	}
	if _, ok := s.notes[id]; !ok {
		return nil, errcodes.NotFound("Note")
	}
	value, err := v.Value()
	if err != nil {
		return nil, err
	}
	n := &note{ID: id, Text: value.Text, Due: value.Due}
	s.notes[id] = n
	return n, nil
}

func newTestWorkflow(t *testing.T) (*Workflow[noteForm, noteValue, *note], *memStore) {
	t.Helper()
	b, err := binder.New()
	require.NoError(t, err)
	store := newMemStore()
	return New[noteForm, noteValue, *note](b, store, acceptNote), store
}

func TestWorkflow_SubmitForCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists once and redirects to the new entity", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)

		outcome, err := w.SubmitForCreate(ctx, &noteForm{Text: " hello ", Due: ""})
		require.NoError(tt, err)
		assert.False(tt, outcome.Rejected)
		assert.Equal(tt, "/notes/n1", outcome.RedirectURL)
		assert.Equal(tt, 1, store.creates)
		assert.Equal(tt, "hello", store.notes["n1"].Text)
		assert.Nil(tt, store.notes["n1"].Due)
	})

	t.Run("normalizes a provided date", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)

		_, err := w.SubmitForCreate(ctx, &noteForm{Text: "hello", Due: "2024-05-06T08:00:00Z"})
		require.NoError(tt, err)
		require.NotNil(tt, store.notes["n1"].Due)
		assert.Equal(tt, time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), *store.notes["n1"].Due)
	})

	t.Run("rejects without persisting and echoes sanitized input", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)

		raw := &noteForm{Text: "  ", Due: "tomorrow"}
		outcome, err := w.SubmitForCreate(ctx, raw)
		require.NoError(tt, err)
		assert.True(tt, outcome.Rejected)
		assert.Empty(tt, outcome.RedirectURL)
		assert.Same(tt, raw, outcome.Submission)
		assert.Equal(tt, "", outcome.Submission.Text)
		require.Len(tt, outcome.Errors, 2)
		assert.Equal(tt, "text", outcome.Errors[0].Field)
		assert.Equal(tt, "Text must be specified", outcome.Errors[0].Message)
		assert.Equal(tt, "due", outcome.Errors[1].Field)
		assert.Equal(tt, "Invalid date", outcome.Errors[1].Message)
		assert.Equal(tt, 0, store.creates)
	})

	t.Run("propagates persistence failures", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)
		store.failWith = errors.New("disk full")

		outcome, err := w.SubmitForCreate(ctx, &noteForm{Text: "hello"})
		assert.Nil(tt, outcome)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), "disk full")
	})
}

func TestWorkflow_SubmitForUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("replaces and redirects to the stored entity", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)
		due := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
		store.notes["n7"] = &note{ID: "n7", Text: "old", Due: &due}

		outcome, err := w.SubmitForUpdate(ctx, "n7", &noteForm{Text: "new"})
		require.NoError(tt, err)
		assert.Equal(tt, "/notes/n7", outcome.RedirectURL)
		assert.Equal(tt, "new", store.notes["n7"].Text)
		// Wholesale replacement clears the omitted date.
		assert.Nil(tt, store.notes["n7"].Due)
	})

	t.Run("missing entity is not found, not a redirect", func(tt *testing.T) {
		w, _ := newTestWorkflow(tt)

		outcome, err := w.SubmitForUpdate(ctx, "nonexistent-id", &noteForm{Text: "new"})
		assert.Nil(tt, outcome)
		require.Error(tt, err)
		assert.True(tt, errors.Is(err, errcodes.NotFound("Note")))
	})

	t.Run("rejection skips the store entirely", func(tt *testing.T) {
		w, store := newTestWorkflow(tt)

		outcome, err := w.SubmitForUpdate(ctx, "nonexistent-id", &noteForm{Text: ""})
		require.NoError(tt, err)
		assert.True(tt, outcome.Rejected)
		assert.Equal(tt, 0, store.replaces)
	})
}

type nilStore struct{ memStore }

func (s *nilStore) Create(_ context.Context, _ Validated[noteValue]) (*note, error) {
	return nil, nil
}

func TestWorkflow_NoLocator(t *testing.T) {
	t.Parallel()
	b, err := binder.New()
	require.NoError(t, err)
	w := New[noteForm, noteValue, *note](b, &nilStore{}, acceptNote)

	outcome, err := w.SubmitForCreate(context.Background(), &noteForm{Text: "hello"})
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no locator")
}

func TestValidated_ZeroValue(t *testing.T) {
	t.Parallel()

	_, err := Validated[noteValue]{}.Value()
	assert.ErrorIs(t, err, ErrNotValidated)

	store := newMemStore()
	_, err = store.Create(context.Background(), Validated[noteValue]{})
	assert.ErrorIs(t, err, ErrNotValidated)
	assert.Empty(t, store.notes)
}
