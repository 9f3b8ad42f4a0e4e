package model

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/euan-reid/story-server/pkg/types"
)

// kindOf returns the kind of record type T. Record kinds are declared on
// pointer receivers that ignore their state, so the zero value suffices.
func kindOf[T types.Record]() types.Kind {
	var zero T
	return zero.Kind()
}

func as[T types.Record](rec types.Record) (T, error) {
	t, ok := rec.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: want %s, got %s", types.ErrKindMismatch, zero.Kind(), rec.Kind())
	}
	return t, nil
}

func asAll[T types.Record](recs []types.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		t, err := as[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func typedResult[T types.Record](rec types.Record, ok bool, err error) (T, bool, error) {
	var zero T
	if err != nil || !ok {
		return zero, false, err
	}
	t, err := as[T](rec)
	if err != nil {
		return zero, false, err
	}
	return t, true, nil
}

// Get is the typed form of Repository.GetByID.
//
//	story, ok, err := model.Get[*types.Story](ctx, repo, id)
func Get[T types.Record](ctx context.Context, r *Repository, id uuid.UUID) (T, bool, error) {
	return typedResult[T](r.GetByID(ctx, kindOf[T](), id))
}

// Require is the typed form of Repository.GetByIDRequired.
func Require[T types.Record](ctx context.Context, r *Repository, id uuid.UUID) (T, error) {
	rec, err := r.GetByIDRequired(ctx, kindOf[T](), id)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](rec)
}

// Find is the typed form of Repository.Query.
func Find[T types.Record](ctx context.Context, r *Repository, field string, value any) ([]T, error) {
	recs, err := r.Query(ctx, kindOf[T](), field, value)
	if err != nil {
		return nil, err
	}
	return asAll[T](recs)
}

// Unique is the typed form of Repository.GetUnique.
func Unique[T types.Record](ctx context.Context, r *Repository, field string, value any) (T, bool, error) {
	return typedResult[T](r.GetUnique(ctx, kindOf[T](), field, value))
}

// ByName is the typed form of Repository.GetByName.
func ByName[T types.Record](ctx context.Context, r *Repository, name string) (T, bool, error) {
	return typedResult[T](r.GetByName(ctx, kindOf[T](), name))
}

// ByLookup is the typed form of Repository.GetByLookup.
func ByLookup[T types.Record](ctx context.Context, r *Repository, value string) (T, bool, error) {
	return typedResult[T](r.GetByLookup(ctx, kindOf[T](), value))
}

// Children is the typed form of Repository.ChildrenOf.
func Children[T types.Record](ctx context.Context, r *Repository, parent types.Record) ([]T, error) {
	recs, err := r.ChildrenOf(ctx, parent, kindOf[T]())
	if err != nil {
		return nil, err
	}
	return asAll[T](recs)
}
