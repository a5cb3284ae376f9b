package listing

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"designify/internal/render"
)

// FieldMapping binds one template layer name to a dotted path into the
// listing record. An empty Path marks a layer the listing data cannot
// fill; the assistant asks the user for it instead.
type FieldMapping struct {
	Layer string `json:"layer"`
	Path  string `json:"path"`
}

// FieldTable is an ordered mapping table. Output order of MapListing
// follows the table order, not the record's.
type FieldTable []FieldMapping

// DefaultFieldTable maps the stock realty template layers to the MLS
// search record paths.
func DefaultFieldTable() FieldTable {
	return FieldTable{
		{Layer: "property_address", Path: "formatted_address"},
		{Layer: "property_price", Path: "price_display"},
		{Layer: "description", Path: "description"},
		{Layer: "bedrooms", Path: "bedrooms"},
		{Layer: "bathrooms", Path: "bathrooms"},
		{Layer: "square_feet", Path: "square_feet"},
		{Layer: "agent_name", Path: "agents.listing_agent.name"},
		{Layer: "agent_contact", Path: "agents.listing_agent.phone"},
		{Layer: "agent_email", Path: "agents.listing_agent.email"},
		{Layer: "neighborhood", Path: "geo_data.neighborhood_name"},
		{Layer: "brokerage_name", Path: "agents.listing_agent.office.name"},
		{Layer: "property_image", Path: "hero.large"},
		// The search API carries no agent headshot; left for the user.
		{Layer: "agent_photo", Path: ""},
	}
}

// LoadFieldTable reads a mapping table from a JSON file of
// [{"layer": ..., "path": ...}] entries.
func LoadFieldTable(path string) (FieldTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("listing: read field table: %w", err)
	}
	var table FieldTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("listing: parse field table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("listing: field table %s is empty", path)
	}
	return table, nil
}

var imageLayerKeywords = []string{"photo", "image", "logo", "picture"}

func isImageLayer(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range imageLayerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MapListing converts a raw listing record into layer modifications
// using the field table. Unmapped entries and absent or empty values
// are skipped so the assistant still prompts for them.
func MapListing(record map[string]any, table FieldTable) []render.Modification {
	mods := make([]render.Modification, 0, len(table))
	for _, m := range table {
		if m.Path == "" {
			continue
		}
		value, ok := Resolve(record, m.Path)
		if !ok || isEmptyValue(value) {
			continue
		}
		if isImageLayer(m.Layer) {
			mods = append(mods, render.Modification{Name: m.Layer, ImageURL: stringify(value)})
		} else {
			mods = append(mods, render.Modification{Name: m.Layer, Text: stringify(value)})
		}
	}
	return mods
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case int:
		return t == 0
	case json.Number:
		return t.String() == "0" || t.String() == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
