package ingest

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed columns.yaml
var columnsYAML []byte

// Columns maps folded header text to canonical field names for one kind.
type Columns map[string]string

// aliasFile mirrors columns.yaml.
type aliasFile struct {
	Members   map[string][]string `yaml:"members"`
	Donations map[string][]string `yaml:"donations"`
}

// LoadColumns parses an alias table. Every canonical name also matches
// itself.
func LoadColumns(data []byte) (members, donations Columns, err error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse column aliases: %w", err)
	}
	return build(f.Members), build(f.Donations), nil
}

func build(src map[string][]string) Columns {
	c := make(Columns)
	for canonical, aliases := range src {
		c[foldHeader(canonical)] = canonical
		for _, a := range aliases {
			c[foldHeader(a)] = canonical
		}
	}
	return c
}

// Canonical returns the field a header maps to, or "" if it is unknown.
func (c Columns) Canonical(header string) string {
	return c[foldHeader(header)]
}

// Map renames the keys of raw to canonical names and drops unknown columns.
// When two headers map to the same field the first non-empty value wins,
// taking headers in sorted order.
func (c Columns) Map(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for _, h := range sortedKeys(raw) {
		field := c.Canonical(h)
		if field == "" {
			continue
		}
		v := strings.TrimSpace(raw[h])
		if v == "" {
			continue
		}
		if _, taken := out[field]; !taken {
			out[field] = v
		}
	}
	return out
}

func foldHeader(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var defaultMembers, defaultDonations = mustLoad()

func mustLoad() (Columns, Columns) {
	m, d, err := LoadColumns(columnsYAML)
	if err != nil {
		panic(err)
	}
	return m, d
}
