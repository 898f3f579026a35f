package cmd

import (
	"github.com/spf13/cobra"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/hashmap-kz/peaceform/internal/cmdblocks"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
)

// NewDiffCmd discovers current and goal state for every item, then pairs
// them with DiffCmdBlock — a read-only preview of exactly what `ensure`
// would change. It runs the same current/goal/diff steps that
// ApplyExecCmdBlock.prepare runs per item, as two command blocks, and
// applies nothing.
func NewDiffCmd(streams genericiooptions.IOStreams) *cobra.Command {
	var sf scopeFlags
	var mf manifestFlags
	var ff fileFlags

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what `ensure` would change, without changing anything.",
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
			mappingFns := params.NewMappingFnRegistry()

			discover := &cmdblocks.StatesDiscoverBlock{
				Graph:       cc.Graph,
				Resources:   cc.Resources,
				ParamsSpecs: cc.ParamsSpecs,
				MappingFns:  mappingFns,
				Flavor:      cmdblocks.DiscoverBoth,
				Interrupt:   progress.NewInterruptibility(cmd.Context()),
			}
			states, _, err := discover.Exec(cmd.Context(), struct{}{})
			if err != nil {
				return err
			}

			diffBlock := &cmdblocks.DiffCmdBlock{
				Graph:       cc.Graph,
				Resources:   cc.Resources,
				ParamsSpecs: cc.ParamsSpecs,
				MappingFns:  mappingFns,
				A:           states.Current,
				B:           states.Goal,
			}
			outcome, errs, err := diffBlock.Exec(cmd.Context(), struct{}{})
			if err != nil {
				return err
			}

			renderDiffs(streams.Out, outcome.Diffs)
			if errs != nil && !errs.IsEmpty() {
				return errAnyItemFailed
			}
			return nil
		},
	}

	addScopeAndInputFlags(cmd, &sf, &mf, &ff)
	return cmd
}
