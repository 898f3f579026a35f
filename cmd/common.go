package cmd

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hashmap-kz/peaceform/internal/cmdctx"
	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/resolve"
	"github.com/hashmap-kz/peaceform/internal/storage"
	"github.com/hashmap-kz/peaceform/internal/typereg"
	"github.com/hashmap-kz/peaceform/internal/utils"
	"github.com/hashmap-kz/peaceform/internal/workspace"
	"github.com/hashmap-kz/peaceform/items/fileitem"
	"github.com/hashmap-kz/peaceform/items/k8sitem"
)

// appName tags this command's directory under <workspace>/.peace, the one
// detail a single-purpose CLI never needs to expose as a flag.
const appName = "peaceform"

// errAnyItemFailed is returned by ensure/clean when the apply-exec block
// reported any per-item failure, so the process exit code reflects it
// without re-rendering the error: renderOutcome already printed the
// detail per item.
var errAnyItemFailed = errors.New("one or more items failed")

// scopeFlags are the workspace/profile/flow coordinates every subcommand
// shares, following cmd/apply.go's own-section flag layout idiom.
type scopeFlags struct {
	workspaceDir string
	profile      string
	flow         string
}

func (s *scopeFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.workspaceDir, "workspace-dir", ".", "Workspace directory (state is kept under <dir>/.peace).")
	fs.StringVar(&s.profile, "profile", "default", "Profile name.")
	fs.StringVar(&s.flow, "flow", "main", "Flow name.")
}

// manifestFlags are the k8s_resource input flags, the direct descendants
// of cmd/apply.go's -f/-R pair.
type manifestFlags struct {
	filenames        []string
	recursive        bool
	defaultNamespace string
	waitReady        bool
}

func (m *manifestFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&m.filenames, "filename", "f", nil,
		"Manifest files, glob patterns, directories, or http(s) URLs.")
	fs.BoolVarP(&m.recursive, "recursive", "R", false,
		"Recurse into directories specified with --filename.")
	fs.StringVar(&m.defaultNamespace, "namespace", "default",
		"Namespace applied to a manifest that sets none.")
	fs.BoolVar(&m.waitReady, "wait-ready", false,
		"Wait for kstatus Current after applying each resource.")
}

// fileFlags are the file item input flags: each entry is dest=srcfile,
// where srcfile's content becomes the managed file's desired content.
type fileFlags struct {
	entries []string
}

func (f *fileFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.entries, "file", nil,
		"Managed file as dest=srcfile; srcfile's content becomes dest's desired content.")
}

var idSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func sanitizeID(s string) item.ID {
	clean := idSanitizer.ReplaceAllString(s, "_")
	clean = strings.Trim(clean, "_")
	if clean == "" || (clean[0] >= '0' && clean[0] <= '9') {
		clean = "_" + clean
	}
	id, err := item.NewID(clean)
	if err != nil {
		// idSanitizer's output is always a valid ItemID; a failure here
		// would be a bug in sanitizeID itself, not user input.
		panic(fmt.Sprintf("cmd: sanitizeID produced an invalid id %q: %v", clean, err))
	}
	return id
}

func k8sItemID(u *unstructured.Unstructured) item.ID {
	gvk := u.GroupVersionKind()
	return sanitizeID(fmt.Sprintf("%s_%s_%s", gvk.Kind, u.GetNamespace(), u.GetName()))
}

func fileItemID(dest string) item.ID {
	return sanitizeID("file_" + dest)
}

// readManifestDocs resolves mf.filenames into individual resource
// documents, splitting multi-document YAML/JSON streams leniently: a
// document that fails to decode into a usable object (missing
// apiVersion/kind, a typo'd field) is dropped via internal/utils.ReadObjects
// rather than aborting the whole batch — one bad document in a large
// manifest set shouldn't block every other resource in it.
func readManifestDocs(mf manifestFlags) ([]*unstructured.Unstructured, error) {
	files, err := resolve.ResolveAllFiles(mf.filenames, mf.recursive)
	if err != nil {
		return nil, err
	}

	var docs []*unstructured.Unstructured
	for _, f := range files {
		raw, err := resolve.ReadFileContent(f)
		if err != nil {
			return nil, fmt.Errorf("cmd: reading %s: %w", f, err)
		}
		objs, err := utils.ReadObjects(strings.NewReader(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("cmd: decoding %s: %w", f, err)
		}
		docs = append(docs, objs...)
	}
	return docs, nil
}

type fileEntry struct {
	dest, contents string
}

// parseFileEntries reads each --file dest=srcfile flag's source content
// eagerly, so a missing source file is reported before any cluster call
// is made.
func parseFileEntries(ff fileFlags) ([]fileEntry, error) {
	out := make([]fileEntry, 0, len(ff.entries))
	for _, e := range ff.entries {
		dest, src, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("cmd: --file entry %q: expected dest=srcfile", e)
		}
		raw, err := resolve.ReadFileContent(src)
		if err != nil {
			return nil, fmt.Errorf("cmd: reading --file source %q: %w", src, err)
		}
		out = append(out, fileEntry{dest: dest, contents: string(raw)})
	}
	return out, nil
}

// buildFlow assembles the item graph and the params specs describing it,
// from the resolved k8s manifests and file entries a subcommand
// collected from its flags.
func buildFlow(docs []*unstructured.Unstructured, files []fileEntry, mf manifestFlags) (*graph.Graph, *params.Specs, error) {
	g := graph.New()
	specs := params.NewSpecs()

	for _, doc := range docs {
		id := k8sItemID(doc)
		if err := g.AddItem(k8sitem.Erase(id)); err != nil {
			return nil, nil, err
		}
		manifestJSON, err := doc.MarshalJSON()
		if err != nil {
			return nil, nil, fmt.Errorf("cmd: marshalling manifest for %q: %w", id, err)
		}
		spec, err := params.SpecOf(k8sitem.TypeName, reflect.TypeOf(k8sitem.Params{}))
		if err != nil {
			return nil, nil, err
		}
		spec = spec.
			WithValue("Manifest", string(manifestJSON)).
			WithValue("DefaultNamespace", mf.defaultNamespace).
			WithValue("WaitReady", mf.waitReady)
		specs.Set(string(id), spec)
	}

	for _, f := range files {
		id := fileItemID(f.dest)
		if err := g.AddItem(fileitem.Erase(id)); err != nil {
			return nil, nil, err
		}
		spec, err := params.SpecOf(fileitem.TypeName, reflect.TypeOf(fileitem.Params{}))
		if err != nil {
			return nil, nil, err
		}
		spec = spec.WithValue("Dest", f.dest).WithValue("Contents", f.contents)
		specs.Set(string(id), spec)
	}

	return g, specs, nil
}

// buildCmdCtx runs the nine-phase cmdctx build (internal/cmdctx) for a
// single profile/flow scope, wiring g/specs in as the already-built flow
// rather than loading them from a flow definition file — this CLI
// describes its flow entirely via -f/--file flags.
func buildCmdCtx(ctx context.Context, sf scopeFlags, g *graph.Graph, specs *params.Specs) (*cmdctx.CmdCtx, error) {
	profile, err := workspace.NewProfile(sf.profile)
	if err != nil {
		return nil, err
	}
	flow, err := workspace.NewFlowID(sf.flow)
	if err != nil {
		return nil, err
	}

	b := cmdctx.NewSpsf()
	b.AppName = appName
	b.WorkspaceDir = sf.workspaceDir
	b.Storage = storage.NewNativeBackend()
	b.WorkspaceParamsReg = typereg.New[string]()
	b.ProfileParamsReg = typereg.New[string]()
	b.FlowParamsReg = typereg.New[string]()
	b.StateReg = typereg.New[string]()
	b.MappingFns = params.NewMappingFnRegistry()
	b.NewGraph = func() (*graph.Graph, error) { return g, nil }
	b.Profile = profile
	b.Flow = flow
	b.ProvidedParamsSpecs = specs

	return b.BuildSingle(ctx)
}

func addScopeAndInputFlags(cmd *cobra.Command, sf *scopeFlags, mf *manifestFlags, ff *fileFlags) {
	fs := cmd.Flags()
	fs.SortFlags = false
	mf.addFlags(fs)
	ff.addFlags(fs)

	conn := pflag.NewFlagSet("Workspace flags", pflag.ContinueOnError)
	sf.addFlags(conn)
	fs.AddFlagSet(conn)
}
