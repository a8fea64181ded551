package config

import (
	"os"

	"github.com/neox5/doglessdata/emitter"
)

// EmitterConfig holds the identity the emitter derives its default tags from.
type EmitterConfig struct {
	GlobalTags   []string
	FunctionName string
	Region       string

	// Set when the value came from the file rather than the environment.
	functionNameSet bool
	regionSet       bool
}

// LambdaEnv captures the Lambda environment variables.
type LambdaEnv struct {
	FunctionName string
	Region       string
}

// LookupLambdaEnv reads the Lambda environment of the current process.
func LookupLambdaEnv() LambdaEnv {
	return LambdaEnv{
		FunctionName: os.Getenv(emitter.EnvFunctionName),
		Region:       os.Getenv(emitter.EnvRegion),
	}
}

// Options builds emitter options. Values from the configuration file win over
// the environment.
func (c EmitterConfig) Options(env LambdaEnv) emitter.Options {
	opts := emitter.Options{
		GlobalTags:   append([]string(nil), c.GlobalTags...),
		FunctionName: env.FunctionName,
		Region:       env.Region,
	}
	if c.functionNameSet {
		opts.FunctionName = c.FunctionName
	}
	if c.regionSet {
		opts.Region = c.Region
	}
	return opts
}
