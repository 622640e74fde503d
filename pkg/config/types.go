package config

// ManifestVersion is the manifest schema version this build understands.
const ManifestVersion = "shinobi/v1"

// Manifest is a parsed service manifest document.
type Manifest struct {
	// APIVersion is the manifest schema version, currently "shinobi/v1".
	APIVersion string `yaml:"apiVersion" validate:"required,eq=shinobi/v1"`

	// Service is the service name, used as a prefix for synthesized resources.
	Service string `yaml:"service" validate:"required,hostname_rfc1123"`

	// Owner is the owning team identifier.
	Owner string `yaml:"owner" validate:"required"`

	// Framework is the compliance framework the service deploys under.
	Framework string `yaml:"framework" validate:"required,oneof=commercial fedramp-moderate fedramp-high"`

	// Environments maps environment names to their deployment targets.
	Environments map[string]EnvironmentTarget `yaml:"environments" validate:"required,min=1,dive"`

	// Tags are propagated to every synthesized resource.
	Tags map[string]string `yaml:"tags,omitempty"`

	// Components are the service's component declarations.
	Components []ComponentDecl `yaml:"components" validate:"required,min=1,dive"`

	// Bindings are the service's binding directives.
	Bindings []BindingDecl `yaml:"bindings,omitempty" validate:"dive"`
}

// EnvironmentTarget is the deployment target for one environment.
type EnvironmentTarget struct {
	// Region is the target cloud region.
	Region string `yaml:"region" validate:"required"`

	// Account is the target account identifier.
	Account string `yaml:"account" validate:"required,numeric,len=12"`
}

// ComponentDecl is one component declaration from the manifest.
type ComponentDecl struct {
	// Name is the component name, unique within the service.
	Name string `yaml:"name" validate:"required,hostname_rfc1123"`

	// Type is the component type key.
	Type string `yaml:"type" validate:"required"`

	// Config is the component-override configuration layer.
	Config map[string]interface{} `yaml:"config,omitempty"`
}

// BindingDecl is one binding directive from the manifest.
type BindingDecl struct {
	// Source is the consuming component name.
	Source string `yaml:"source" validate:"required"`

	// Target is the providing component name.
	Target string `yaml:"target" validate:"required"`

	// Capability is the capability name on the target.
	Capability string `yaml:"capability" validate:"required,contains=:"`

	// Access is the requested access level.
	Access string `yaml:"access" validate:"required,oneof=read write readwrite admin authenticate manage"`

	// Env maps a strategy's default environment variable names to
	// caller-chosen names.
	Env map[string]string `yaml:"env,omitempty"`
}
