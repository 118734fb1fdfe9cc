package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawConfig mirrors the three top-level YAML tables: plugins, steps, and
// repository-level settings plugins read but the core never interprets.
type rawConfig struct {
	Repo    string                `yaml:"repo"`
	Plugins []rawPlugin           `yaml:"plugins" validate:"required,min=1,dive"`
	Steps   map[string]rawBinding `yaml:"steps" validate:"required"`
}

// rawPlugin is one entry of the plugins table.
type rawPlugin struct {
	ID       string                 `yaml:"id" validate:"required"`
	Location rawLocation            `yaml:"location" validate:"required"`
	Config   map[string]interface{} `yaml:"config"`
}

// rawLocation decodes the short form (a bare string naming a builtin
// plugin) and the long form (a table with explicit fields), the same way
// the teacher's Step.UnmarshalYAML discriminates on shape rather than an
// explicit tag.
type rawLocation struct {
	Builtin string
}

func (l *rawLocation) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		l.Builtin = s
		return nil
	case yaml.MappingNode:
		var long struct {
			Builtin string `yaml:"builtin"`
		}
		if err := value.Decode(&long); err != nil {
			return err
		}
		if long.Builtin == "" {
			return fmt.Errorf("plugin location table must set 'builtin'")
		}
		l.Builtin = long.Builtin
		return nil
	default:
		return fmt.Errorf("plugin location must be a string or a table")
	}
}

// rawBinding decodes a step's binding: a bare string names either a single
// plugin id (singleton) or the literal "discover"; a sequence names a
// shared, ordered list of plugin ids.
type rawBinding struct {
	Kind      string
	Singleton string
	Shared    []string
}

const discoverKeyword = "discover"

func (b *rawBinding) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == discoverKeyword {
			b.Kind = "discover"
			return nil
		}
		b.Kind = "singleton"
		b.Singleton = s
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		b.Kind = "shared"
		b.Shared = list
		return nil
	default:
		return fmt.Errorf("step binding must be a string or a list of plugin ids")
	}
}
