package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is the sentinel used for every country field the directory
// did not provide.
const NotAvailable = "N/A"

// Country is the normalized record shown in the listing. Name is the de facto
// key but is not guaranteed unique upstream.
type Country struct {
	Name       string     `json:"name"`
	Population Population `json:"population"`
	Region     string     `json:"region"`
	Languages  string     `json:"languages"`
	Flag       string     `json:"flag"`
	Capital    string     `json:"capital"`
}

// Population is either a head count or unknown. On the wire an unknown
// population is the string "N/A", otherwise a JSON number.
type Population struct {
	count int64
	known bool
}

// KnownPopulation wraps a head count.
func KnownPopulation(n int64) Population {
	return Population{count: n, known: true}
}

// UnknownPopulation is the "N/A" population.
func UnknownPopulation() Population {
	return Population{}
}

// Count returns the head count and whether it is known.
func (p Population) Count() (int64, bool) {
	return p.count, p.known
}

var populationPrinter = message.NewPrinter(language.English)

// String formats the count with thousands separators, or returns "N/A".
func (p Population) String() string {
	if !p.known {
		return NotAvailable
	}
	return populationPrinter.Sprintf("%d", p.count)
}

// MarshalJSON implements json.Marshaler.
func (p Population) MarshalJSON() ([]byte, error) {
	if !p.known {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(p.count)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Population) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NotAvailable {
			return fmt.Errorf("population: unexpected string %q", s)
		}
		*p = UnknownPopulation()
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = UnknownPopulation()
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("population: %w", err)
	}
	*p = KnownPopulation(n)
	return nil
}
