package countries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/isdelr/grandline-guide/internal/models"
)

// rawCountry is the subset of the upstream record that gets normalized.
type rawCountry struct {
	Name *struct {
		Common string `json:"common"`
	} `json:"name"`
	Population *int64            `json:"population"`
	Region     string            `json:"region"`
	Languages  *orderedLanguages `json:"languages"`
	Flags      *struct {
		PNG string `json:"png"`
	} `json:"flags"`
	Capital []string `json:"capital"`
}

// orderedLanguages holds the values of the upstream languages object in the
// order they appear in the document.
type orderedLanguages []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *orderedLanguages) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("languages: expected object, got %v", tok)
	}

	names := orderedLanguages{}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var name string
		if err := dec.Decode(&name); err != nil {
			return fmt.Errorf("languages: %w", err)
		}
		names = append(names, name)
	}
	*l = names
	return nil
}

// normalize maps an upstream record onto models.Country. Zero and empty
// values count as missing and become models.NotAvailable; an empty languages
// object is present and yields "".
func normalize(raw rawCountry) models.Country {
	c := models.Country{
		Name:       models.NotAvailable,
		Population: models.UnknownPopulation(),
		Region:     orNA(raw.Region),
		Languages:  models.NotAvailable,
		Flag:       models.NotAvailable,
		Capital:    models.NotAvailable,
	}
	if raw.Name != nil {
		c.Name = orNA(raw.Name.Common)
	}
	if raw.Population != nil && *raw.Population != 0 {
		c.Population = models.KnownPopulation(*raw.Population)
	}
	if raw.Languages != nil {
		c.Languages = strings.Join(*raw.Languages, ", ")
	}
	if raw.Flags != nil {
		c.Flag = orNA(raw.Flags.PNG)
	}
	if len(raw.Capital) > 0 {
		c.Capital = orNA(raw.Capital[0])
	}
	return c
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
