package config

// RawConfig represents unparsed YAML structure
type RawConfig struct {
	Emitter   RawEmitterConfig   `yaml:"emitter"`
	Export    RawExportConfig    `yaml:"export"`
	Settings  RawSettingsConfig  `yaml:"settings"`
	Generator RawGeneratorConfig `yaml:"generator"`
}

// RawEmitterConfig overrides the Lambda environment for the emitter
type RawEmitterConfig struct {
	GlobalTags   []string `yaml:"global_tags,omitempty"`
	FunctionName *string  `yaml:"function_name,omitempty"`
	Region       *string  `yaml:"region,omitempty"`
}
