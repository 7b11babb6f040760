// Package config loads a TOML manifest of extra Environment bindings a
// host application wants pre-registered without editing Go source,
// mirroring the teacher's chai-mod.toml module-configuration
// convention at a much smaller scale: fexpr has no imports, profiles,
// or dependency graph to resolve, only names to bind.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"fexpr/common"
	"fexpr/env"
)

// tomlManifest is the on-disk shape of a binding manifest.
type tomlManifest struct {
	Bundles   []string           `toml:"bundles"`
	Constants map[string]float32 `toml:"constants"`
	Variables []tomlVariable     `toml:"variables"`
}

type tomlVariable struct {
	Name     string `toml:"name"`
	Offset   int32  `toml:"offset"`
	ReadOnly bool   `toml:"read-only"`
}

var bundleNames = map[string]env.Bundle{
	"math": env.Math,
	"all":  env.All,
}

// Load reads the manifest at path and applies it to e, registering
// every bundle, constant, and variable it lists. Bindings from an
// earlier entry are visible to validation of later ones only through
// e itself, so a manifest may not forward-reference a name it also
// defines.
func Load(path string, e *env.Environment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read manifest: %w", err)
	}

	m := &tomlManifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return fmt.Errorf("config: parse manifest: %w", err)
	}

	return apply(m, e)
}

func apply(m *tomlManifest, e *env.Environment) error {
	for _, name := range m.Bundles {
		b, ok := bundleNames[name]
		if !ok {
			return common.NewError(common.InvalidArgument, "unknown bundle '"+name+"' in manifest")
		}
		if err := e.AddBundle(b); err != nil {
			return err
		}
	}

	for name, value := range m.Constants {
		if err := e.AddConstant(name, value); err != nil {
			return err
		}
	}

	for _, v := range m.Variables {
		flags := env.VarFlags(0)
		if v.ReadOnly {
			flags = env.ReadOnly
		}
		if err := e.AddVariable(v.Name, v.Offset, flags); err != nil {
			return err
		}
	}

	return nil
}
