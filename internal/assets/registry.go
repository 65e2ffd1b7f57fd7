package assets

// Registry lists embedded assets available at runtime.
// Update this when adding/removing curated assets.

// Kind groups registry entries.
type Kind string

const (
	KindSchema   Kind = "schema"
	KindTemplate Kind = "template"
)

// Names of registered assets.
const (
	ConfigSchemaName          = "cachestamp-config-v1.0.0"
	ServiceWorkerTemplateName = "service-worker"
)

type AssetInfo struct {
	Name string
	Kind Kind
	Path string // embed path, relative to the package
}

var Registry = []AssetInfo{
	{
		Name: ConfigSchemaName,
		Kind: KindSchema,
		Path: "embedded_schemas/config/cachestamp-config-v1.0.0.yaml",
	},
	{
		Name: ServiceWorkerTemplateName,
		Kind: KindTemplate,
		Path: "embedded_templates/service-worker.js.hbs",
	},
}

// Lookup finds a registry entry by name.
func Lookup(name string) (AssetInfo, bool) {
	for _, a := range Registry {
		if a.Name == name {
			return a, true
		}
	}
	return AssetInfo{}, false
}
