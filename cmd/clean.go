package cmd

import (
	"github.com/spf13/cobra"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/hashmap-kz/peaceform/internal/cmdblocks"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/progress"
)

// NewCleanCmd drives every item in the flow towards its clean (absent)
// state, traversing the graph in reverse so dependents are destroyed
// before their dependencies.
func NewCleanCmd(streams genericiooptions.IOStreams) *cobra.Command {
	var sf scopeFlags
	var mf manifestFlags
	var ff fileFlags
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every item in the flow.",
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

			progressCh := make(chan progress.Update, 256)
			done := make(chan struct{})
			go func() {
				streamProgress(streams.Out, progressCh)
				close(done)
			}()

			block := &cmdblocks.ApplyExecCmdBlock{
				Graph:       cc.Graph,
				Resources:   cc.Resources,
				ParamsSpecs: cc.ParamsSpecs,
				MappingFns:  params.NewMappingFnRegistry(),
				Ts:          cmdblocks.StatesTs{ApplyFor: cmdblocks.ApplyForClean, DryRun: dryRun},
				ProgressCh:  progressCh,
				Interrupt:   progress.NewInterruptibility(cmd.Context()),
			}

			outcome, errs, err := block.Exec(cmd.Context(), struct{}{})
			close(progressCh)
			<-done
			if err != nil {
				return err
			}

			renderOutcome(streams.Out, outcome.StatesApplied, errs)
			if errs != nil && !errs.IsEmpty() {
				return errAnyItemFailed
			}
			return nil
		},
	}

	addScopeAndInputFlags(cmd, &sf, &mf, &ff)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the removal without mutating any item's external state.")
	return cmd
}
