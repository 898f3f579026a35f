package cmd

import (
	"github.com/spf13/cobra"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/hashmap-kz/peaceform/internal/cmdblocks"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
)

// NewStatusCmd discovers and prints each item's current and goal state
// without applying anything.
func NewStatusCmd(streams genericiooptions.IOStreams) *cobra.Command {
	var sf scopeFlags
	var mf manifestFlags
	var ff fileFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current and goal state for every item in the flow.",
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

			cc, err := buildCmdCtx(cmd.Context(), sf, g, specs)
			if err != nil {
				return err
			}

			block := &cmdblocks.StatesDiscoverBlock{
				Graph:       cc.Graph,
				Resources:   cc.Resources,
				ParamsSpecs: cc.ParamsSpecs,
				MappingFns:  params.NewMappingFnRegistry(),
				Flavor:      cmdblocks.DiscoverBoth,
				Interrupt:   progress.NewInterruptibility(cmd.Context()),
			}

			outcome, errs, err := block.Exec(cmd.Context(), struct{}{})
			if err != nil {
				return err
			}

			renderStates(streams.Out, "current:", outcome.Current)
			renderStates(streams.Out, "goal:", outcome.Goal)
			if errs != nil && !errs.IsEmpty() {
				return errAnyItemFailed
			}
			return nil
		},
	}

	addScopeAndInputFlags(cmd, &sf, &mf, &ff)
	return cmd
}
