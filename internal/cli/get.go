package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/euan-reid/story-server/internal/model"
	"github.com/euan-reid/story-server/pkg/types"
)

func newGetCmd(a *app) *cobra.Command {
	var byID, byName bool
	cmd := &cobra.Command{
		Use:   "get <kind> <lookup>",
		Short: "Get a record by its lookup value",
		Long: `Get fetches one record. The lookup value is matched against the kind's
default lookup field, which is the record id for every kind. Use --name to
match the name instead.

Example:
  storyctl get story 0b5c8a5e-3f55-4a6e-9d43-2a3b1c7f1e20
  storyctl get --name universe Myst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if byID && byName {
				return fmt.Errorf("--id and --name are mutually exclusive")
			}
			kind, lookup := args[0], args[1]
			return a.withRepository(cmd.Context(), func(repo *model.Repository) error {
				var (
					rec   types.Record
					found bool
					err   error
				)
				switch {
				case byID:
					id, perr := uuid.Parse(lookup)
					if perr != nil {
						return fmt.Errorf("%w: %q", types.ErrInvalidID, lookup)
					}
					rec, found, err = repo.GetByKindAndID(cmd.Context(), kind, id)
				case byName:
					rec, found, err = repo.GetByKindAndName(cmd.Context(), kind, lookup)
				default:
					rec, found, err = repo.GetByKindAndLookup(cmd.Context(), kind, lookup)
				}
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%w: %s %q", types.ErrNotFound, kind, lookup)
				}
				return render(cmd.OutOrStdout(), a.output, rec)
			})
		},
	}
	cmd.Flags().BoolVar(&byID, "id", false, "match the lookup value against the record id")
	cmd.Flags().BoolVar(&byName, "name", false, "match the lookup value against the record name")
	return cmd
}

func newChildrenCmd(a *app) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "children <kind> <lookup> <child-kind>",
		Short: "List records that reference a parent record",
		Long: `Children lists the records of child-kind whose foreign key points at
the parent found by kind and lookup. The lookup is the parent's id unless
--name is given.

Example:
  storyctl children universe 6f1d2c3e-8a9b-4c5d-9e0f-1a2b3c4d5e6f series
  storyctl children --name author "Jane Doe" story`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, lookup, childKind := args[0], args[1], args[2]
			return a.withRepository(cmd.Context(), func(repo *model.Repository) error {
				var (
					recs []types.Record
					err  error
				)
				if byName {
					recs, err = childrenByName(cmd.Context(), repo, kind, lookup, childKind)
				} else {
					recs, err = repo.ChildrenByKind(cmd.Context(), kind, lookup, childKind)
				}
				if err != nil {
					return err
				}
				if recs == nil {
					recs = []types.Record{}
				}
				return render(cmd.OutOrStdout(), a.output, recs)
			})
		},
	}
	cmd.Flags().BoolVar(&byName, "name", false, "match the parent lookup value against its name")
	return cmd
}

// childrenByName is ChildrenByKind with the parent found by name.
func childrenByName(ctx context.Context, repo *model.Repository, kind, name, childKind string) ([]types.Record, error) {
	childDesc, err := repo.Registry().Resolve(childKind)
	if err != nil {
		return nil, err
	}
	parent, found, err := repo.GetByKindAndName(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s %q", types.ErrNotFound, kind, name)
	}
	return repo.ChildrenOf(ctx, parent, childDesc.Kind)
}
