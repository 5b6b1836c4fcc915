package engine

// ModelBuilder supplies the graph construction for one model variant:
// which parameters are free and under which priors, which are
// deterministic transforms, and how the likelihood is attached. The base
// engine holds no variant-specific logic; each variant is an independent
// implementation of this interface.
type ModelBuilder interface {
	// Name identifies the variant in logs, metrics, and stored runs.
	Name() string

	// RequiredInputs lists the named inputs the variant needs before its
	// graph can be built. The engine rejects a build with any of them
	// absent.
	RequiredInputs() []string

	// BuildModel declares the variant's nodes on the builder. It runs
	// inside the scoped Build call; returning an error aborts the build.
	BuildModel(b *GraphBuilder, in *InputSet) error
}
