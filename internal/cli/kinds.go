package cli

import (
	"github.com/spf13/cobra"

	"github.com/euan-reid/story-server/internal/model"
)

// kindInfo is the printed form of a model.Descriptor.
type kindInfo struct {
	Kind        string `json:"kind" yaml:"kind"`
	LookupField string `json:"lookup_field" yaml:"lookup_field"`
	Parent      string `json:"parent,omitempty" yaml:"parent,omitempty"`
	ParentField string `json:"parent_field,omitempty" yaml:"parent_field,omitempty"`
}

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List record kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := model.NewRegistry()
			var out []kindInfo
			for _, kind := range reg.Kinds() {
				d, err := reg.Descriptor(kind)
				if err != nil {
					return err
				}
				info := kindInfo{Kind: string(kind), LookupField: d.DefaultLookupField}
				if d.Ancestor != nil {
					info.Parent = string(d.Ancestor.Kind)
					info.ParentField = d.Ancestor.Field
				}
				out = append(out, info)
			}
			return render(cmd.OutOrStdout(), a.output, out)
		},
	}
}
