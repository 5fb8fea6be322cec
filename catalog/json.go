package catalog

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/csvsqldb/csvsqldb/csverrors"
	"github.com/csvsqldb/csvsqldb/sql/types"
)

// jsonColumn mirrors the wire shape from exactly, including its
// space-separated JSON keys ("primary key", "not null").
type jsonColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary key"`
	NotNull    bool   `json:"not null"`
	Unique     bool   `json:"unique"`
	Default    string `json:"default"`
	Check      string `json:"check"`
	Length     int    `json:"length"`
}

type jsonConstraint struct {
	PrimaryKeys []string `json:"primary keys"`
	UniqueKeys  []string `json:"unique keys"`
	Check       string   `json:"check"`
}

type jsonTableBody struct {
	Name        string           `json:"name"`
	Columns     []jsonColumn     `json:"columns"`
	Constraints []jsonConstraint `json:"constraints"`
}

type jsonTableDoc struct {
	Table jsonTableBody `json:"Table"`
}

// TableToJSON serializes t to its on-disk JSON representation.
func TableToJSON(t TableData) ([]byte, error) {
	body := jsonTableBody{Name: t.Name}
	for _, c := range t.Columns {
		body.Columns = append(body.Columns, jsonColumn{
			Name:       c.Name,
			Type:       c.Type.String(),
			PrimaryKey: c.PrimaryKey,
			NotNull:    c.NotNull,
			Unique:     c.Unique,
			Default:    c.Default,
			Check:      c.Check,
			Length:     c.Length,
		})
	}
	for _, c := range t.Constraints {
		jc := jsonConstraint{Check: c.Check}
		jc.PrimaryKeys = append(jc.PrimaryKeys, c.PrimaryKeys...)
		jc.UniqueKeys = append(jc.UniqueKeys, c.UniqueKeys...)
		body.Constraints = append(body.Constraints, jc)
	}
	if body.Columns == nil {
		body.Columns = []jsonColumn{}
	}
	if body.Constraints == nil {
		body.Constraints = []jsonConstraint{}
	}
	out, err := json.MarshalIndent(jsonTableDoc{Table: body}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal table")
	}
	return out, nil
}

// TableFromJSON parses a table's JSON representation, raising
// JsonException with the inner failure quoted on malformed input.
func TableFromJSON(data []byte) (TableData, error) {
	var doc jsonTableDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return TableData{}, csverrors.Json.New(errors.Wrapf(err, "malformed table schema %q", string(data)).Error())
	}

	t := TableData{Name: doc.Table.Name}
	for _, jc := range doc.Table.Columns {
		typ, err := types.ParseType(jc.Type)
		if err != nil {
			return TableData{}, csverrors.Json.New(errors.Wrapf(err, "unknown column type %q", jc.Type).Error())
		}
		t.Columns = append(t.Columns, Column{
			Name:       jc.Name,
			Type:       typ,
			PrimaryKey: jc.PrimaryKey,
			NotNull:    jc.NotNull,
			Unique:     jc.Unique,
			Default:    jc.Default,
			Check:      jc.Check,
			Length:     jc.Length,
		})
	}
	for _, jc := range doc.Table.Constraints {
		t.Constraints = append(t.Constraints, Constraint{
			PrimaryKeys: jc.PrimaryKeys,
			UniqueKeys:  jc.UniqueKeys,
			Check:       jc.Check,
		})
	}
	return t, nil
}

type jsonMappingRule struct {
	Pattern       string `json:"pattern"`
	Delimiter     string `json:"delimiter"`
	SkipFirstLine bool   `json:"skipFirstLine"`
}

type jsonMappingBody struct {
	Name     string            `json:"name"`
	Mappings []jsonMappingRule `json:"mappings"`
}

type jsonMappingDoc struct {
	Mapping jsonMappingBody `json:"Mapping"`
}

// MappingToJSON serializes m to its on-disk JSON representation.
func MappingToJSON(m Mapping) ([]byte, error) {
	body := jsonMappingBody{Name: m.Name}
	for _, r := range m.Mappings {
		delim := string(r.Delimiter)
		if r.Delimiter == 0 {
			delim = ","
		}
		body.Mappings = append(body.Mappings, jsonMappingRule{
			Pattern:       r.Pattern,
			Delimiter:     delim,
			SkipFirstLine: r.SkipFirstLine,
		})
	}
	if body.Mappings == nil {
		body.Mappings = []jsonMappingRule{}
	}
	out, err := json.MarshalIndent(jsonMappingDoc{Mapping: body}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal mapping")
	}
	return out, nil
}

// MappingFromJSON parses a mapping file's JSON representation.
func MappingFromJSON(data []byte) (Mapping, error) {
	var doc jsonMappingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Mapping{}, csverrors.Json.New(errors.Wrapf(err, "malformed mapping %q", string(data)).Error())
	}
	m := Mapping{Name: doc.Mapping.Name}
	for _, r := range doc.Mapping.Mappings {
		delim := ','
		if len(r.Delimiter) > 0 {
			delim = rune(r.Delimiter[0])
		}
		m.Mappings = append(m.Mappings, MappingRule{
			Pattern:       r.Pattern,
			Delimiter:     delim,
			SkipFirstLine: r.SkipFirstLine,
		})
	}
	return m, nil
}
