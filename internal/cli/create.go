package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/euan-reid/story-server/internal/model"
	"github.com/euan-reid/story-server/pkg/types"
)

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record",
		Long: `Create constructs a record with a fresh id, resolves its parent, and
saves it. Parents are referenced by name.

Example:
  storyctl create universe Myst
  storyctl create series "Book One" --universe Myst
  storyctl create author "Jane Doe"
  storyctl create story "Chapter 1" --series "Book One" --author "Jane Doe"`,
	}
	cmd.AddCommand(
		newCreateRootCmd(a, types.KindAuthor, func(ctx context.Context, repo *model.Repository, name string) (types.Record, error) {
			return repo.NewAuthor(ctx, name)
		}),
		newCreateRootCmd(a, types.KindUniverse, func(ctx context.Context, repo *model.Repository, name string) (types.Record, error) {
			return repo.NewUniverse(ctx, name)
		}),
		newCreateSeriesCmd(a),
		newCreateStoryCmd(a),
	)
	return cmd
}

type constructFunc func(ctx context.Context, repo *model.Repository, name string) (types.Record, error)

func newCreateRootCmd(a *app, kind types.Kind, construct constructFunc) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <name>", kind),
		Short: fmt.Sprintf("Create a root %s record", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.create(cmd, func(ctx context.Context, repo *model.Repository) (types.Record, error) {
				return construct(ctx, repo, args[0])
			})
		},
	}
}

func newCreateSeriesCmd(a *app) *cobra.Command {
	var universe string
	cmd := &cobra.Command{
		Use:   "series <name>",
		Short: "Create a series in a universe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.create(cmd, func(ctx context.Context, repo *model.Repository) (types.Record, error) {
				u, err := requireName[*types.Universe](ctx, repo, universe)
				if err != nil {
					return nil, err
				}
				return repo.NewSeries(ctx, args[0], u.ID)
			})
		},
	}
	cmd.Flags().StringVar(&universe, "universe", "", "universe name (required)")
	_ = cmd.MarkFlagRequired("universe")
	return cmd
}

func newCreateStoryCmd(a *app) *cobra.Command {
	var series, author string
	cmd := &cobra.Command{
		Use:   "story <name>",
		Short: "Create a story in a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.create(cmd, func(ctx context.Context, repo *model.Repository) (types.Record, error) {
				s, err := requireName[*types.Series](ctx, repo, series)
				if err != nil {
					return nil, err
				}
				au, err := requireName[*types.Author](ctx, repo, author)
				if err != nil {
					return nil, err
				}
				return repo.NewStory(ctx, args[0], s.ID, au.ID)
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "series name (required)")
	cmd.Flags().StringVar(&author, "author", "", "author name (required)")
	_ = cmd.MarkFlagRequired("series")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

// create runs construct inside an attached repository, saves the result, and
// prints it.
func (a *app) create(cmd *cobra.Command, construct func(context.Context, *model.Repository) (types.Record, error)) error {
	ctx := cmd.Context()
	return a.withRepository(ctx, func(repo *model.Repository) error {
		rec, err := construct(ctx, repo)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, rec); err != nil {
			return systemErr("save %s: %w", rec.Kind(), err)
		}
		a.log.Info("created record",
			zap.String("kind", string(rec.Kind())),
			zap.String("id", rec.Base().ID.String()))
		return render(cmd.OutOrStdout(), a.output, rec)
	})
}

// requireName finds a record of type T by name.
func requireName[T types.Record](ctx context.Context, repo *model.Repository, name string) (T, error) {
	rec, found, err := model.ByName[T](ctx, repo, name)
	if err != nil {
		return rec, err
	}
	if !found {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", types.ErrNotFound, zero.Kind(), name)
	}
	return rec, nil
}
