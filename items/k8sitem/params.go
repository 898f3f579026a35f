package k8sitem

// Params is this item's resolved Params (Value), the P type parameter of
// item.Item. Manifest is a single YAML/JSON document
// describing the desired object; DefaultNamespace applies when the
// manifest itself sets none (internal/apply/apply.go's prepareApplyPlan
// namespace-defaulting). WaitReady opts into kstatus polling after apply —
// left off by default since plain ConfigMaps/Secrets never reach a
// kstatus "Current" status and would otherwise block forever.
type Params struct {
	Manifest         string
	DefaultNamespace string
	WaitReady        bool
}

// Partial is Params with every field optional.
type Partial struct {
	Manifest         *string
	DefaultNamespace *string
	WaitReady        *bool
}
