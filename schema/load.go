package schema

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

type modelDoc struct {
	Types []typeDoc `yaml:"types"`
}

type typeDoc struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	Base       string        `yaml:"base,omitempty"`
	Open       bool          `yaml:"open,omitempty"`
	Members    []string      `yaml:"members,omitempty"`
	Properties []propertyDoc `yaml:"properties,omitempty"`
	Navigation []navDoc      `yaml:"navigation,omitempty"`
}

type propertyDoc struct {
	Name         string `yaml:"name"`
	Type         string `yaml:"type"`
	Nullable     *bool  `yaml:"nullable,omitempty"`
	NullHandling string `yaml:"nullHandling,omitempty"`
}

type navDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadModel reads a YAML model document:
//
//	types:
//	- name: NS.Order
//	  kind: entity
//	  properties:
//	  - {name: Age, type: Edm.Int32, nullable: false, nullHandling: ignore}
//	  navigation:
//	  - {name: Customer, type: NS.Customer}
func LoadModel(r io.Reader) (*Model, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseModel(d)
}

func LoadModelFile(path string) (*Model, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseModel(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ParseModel(d []byte) (*Model, error) {
	doc := &modelDoc{}
	if err := yaml.Unmarshal(d, doc); err != nil {
		return nil, fmt.Errorf("could not parse model: %w", err)
	}
	return doc.build()
}

func (doc *modelDoc) build() (*Model, error) {
	types := make([]*Type, 0, len(doc.Types))
	for i := range doc.Types {
		td := &doc.Types[i]
		k, err := ParseTypeKind(td.Kind)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", td.Name, err)
		}
		if k == PrimitiveType || k == CollectionType {
			return nil, fmt.Errorf("type %s: %s types cannot be declared", td.Name, k)
		}
		t := &Type{
			Name:     td.Name,
			Kind:     k,
			BaseType: td.Base,
			Open:     td.Open,
			Members:  td.Members,
		}
		for _, pd := range td.Properties {
			p := &Property{Name: pd.Name, Type: pd.Type, Nullable: true}
			if pd.Nullable != nil {
				p.Nullable = *pd.Nullable
			}
			switch pd.NullHandling {
			case "", "default":
			case "ignore":
				p.NullHandling = NullIgnore
			default:
				return nil, fmt.Errorf("property %s.%s: unrecognized null handling %q", td.Name, pd.Name, pd.NullHandling)
			}
			t.Properties = append(t.Properties, p)
		}
		for _, nd := range td.Navigation {
			t.Navigation = append(t.Navigation, &NavigationProperty{Name: nd.Name, Type: nd.Type})
		}
		types = append(types, t)
	}
	return NewModel(types...)
}
