package generator

import (
	"fmt"
	"slices"
)

// Phrasebook holds the phrasings used to synthesize example questions. Format
// verbs are positional: property phrasings take (label, property), composite
// phrasings take (start, end, property) and three-node phrasings take
// (start, middle, property).
type Phrasebook struct {
	Locale string

	Property      []string
	ShortLabel    []string
	ShortProperty []string
	Composite     []string
	ThreeNode     []string

	PropertyDescription  string
	CompositeDescription string
}

// Portuguese is the phrasebook the deployed catalogs use.
var Portuguese = Phrasebook{
	Locale: "pt",
	Property: []string{
		"Buscar %[1]s com %[2]s <VALOR>",
		"Localizar %[1]s pelo %[2]s <VALOR>",
		"Quais %[1]s possuem %[2]s <VALOR>?",
	},
	ShortLabel:    []string{"Buscar %s <VALOR>", "%s <VALOR>"},
	ShortProperty: []string{"%s <VALOR>"},
	Composite: []string{
		"Buscar %[1]s associados a %[2]s com %[3]s <VALOR>",
		"Quais %[1]s estão conectados a %[2]s onde %[3]s é <VALOR>?",
	},
	ThreeNode: []string{
		"Quem é o %[1]s do %[2]s de %[3]s <VALOR>?",
		"Buscar %[1]s do %[2]s com %[3]s <VALOR>",
	},
	PropertyDescription:  "Buscar %s por %s",
	CompositeDescription: "Buscar %s via %s por %s",
}

// English is an alternative phrasebook for English ontologies.
var English = Phrasebook{
	Locale: "en",
	Property: []string{
		"Find %[1]s with %[2]s <VALUE>",
		"Locate %[1]s by %[2]s <VALUE>",
		"Which %[1]s have %[2]s <VALUE>?",
	},
	ShortLabel:    []string{"Find %s <VALUE>", "%s <VALUE>"},
	ShortProperty: []string{"%s <VALUE>"},
	Composite: []string{
		"Find %[1]s associated with %[2]s with %[3]s <VALUE>",
		"Which %[1]s are connected to %[2]s where %[3]s is <VALUE>?",
	},
	ThreeNode: []string{
		"Who is the %[1]s of the %[2]s with %[3]s <VALUE>?",
		"Find %[1]s of the %[2]s with %[3]s <VALUE>",
	},
	PropertyDescription:  "Find %s by %s",
	CompositeDescription: "Find %s via %s by %s",
}

var phrasebooks = []Phrasebook{Portuguese, English}

// PhrasebookFor returns the phrasebook for a locale.
func PhrasebookFor(locale string) (Phrasebook, error) {
	for _, pb := range phrasebooks {
		if pb.Locale == locale {
			return pb, nil
		}
	}

	return Phrasebook{}, fmt.Errorf("no phrasebook for locale %q (have %v)", locale, Locales())
}

// Locales lists the available phrasebook locales.
func Locales() []string {
	out := make([]string, 0, len(phrasebooks))
	for _, pb := range phrasebooks {
		out = append(out, pb.Locale)
	}

	slices.Sort(out)

	return out
}

func expand(formats []string, args ...any) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, fmt.Sprintf(f, args...))
	}

	return out
}
