package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// NewExampleCmd prints each item's state_example preview — an
// infallible, representative state for diagram/preview purposes,
// without touching the filesystem or a cluster — the one subcommand
// that never needs Setup to have run, since it never borrows anything
// from the resource map.
func NewExampleCmd(streams genericiooptions.IOStreams) *cobra.Command {
	var mf manifestFlags
	var ff fileFlags

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Preview the declared shape of every item, without touching a cluster or disk.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := readManifestDocs(mf)
			if err != nil {
				return err
			}
			files, err := parseFileEntries(ff)
			if err != nil {
				return err
			}
			g, specs, err := buildFlow(docs, files, mf)
			if err != nil {
				return err
			}

			res := resources.New()
			mappingFns := params.NewMappingFnRegistry()
			t := newTable(streams.Out, "item", "example state")
			for _, id := range g.InsertionOrder() {
				rt, _ := g.Item(id)
				spec, ok := specs.Get(string(id))
				if !ok {
					continue
				}
				resolved, err := params.Resolve(spec, res, string(id), spec.TypeName, mappingFns)
				if err != nil {
					return fmt.Errorf("cmd: resolving example params for %q: %w", id, err)
				}
				boxed := rt.StateExampleErased(resolved, res)
				t.AddRow(string(id), boxed.String())
			}
			t.Render()
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	mf.addFlags(fs)
	ff.addFlags(fs)
	return cmd
}
