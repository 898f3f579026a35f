package k8sitem

import (
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// Clients bundles the cluster handles every k8sitem.Item needs, built once
// per command and shared through the resource map: the
// dynamic client for Get/Patch/Delete, a REST mapper for GVK->GVR, and a
// controller-runtime Reader for kstatus polling. Grounded on
// internal/apply/apply.go's RunApply step 1 ("Build REST config &
// clients"), split out of the one-shot function into a reusable value.
type Clients struct {
	Dynamic dynamic.Interface
	Mapper  meta.RESTMapper
	Reader  ctrlclient.Reader
}

// NewClients builds the client set from a REST config, exactly the four
// calls RunApply made inline before this port existed (apply.go lines
// building dyn/disc/mapper/crClient).
func NewClients(cfg *rest.Config) (*Clients, error) {
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, err
	}
	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, err
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disc))

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	crClient, err := ctrlclient.New(cfg, ctrlclient.Options{Scheme: scheme})
	if err != nil {
		return nil, err
	}

	return &Clients{Dynamic: dyn, Mapper: mapper, Reader: crClient}, nil
}
