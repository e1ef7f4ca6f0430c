package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the postal address snapshot stored on an order as jsonb.
type Address struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	AddressLine1  string  `json:"address_line_1"`
	AddressLine2  *string `json:"address_line_2,omitempty"`
	City          string  `json:"city"`
	StateProvince string  `json:"state_province"`
	PostalCode    string  `json:"postal_code"`
	Country       string  `json:"country"`
	Phone         *string `json:"phone,omitempty"`
}

// MissingFields lists the json names of required fields that are blank.
func (a Address) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address_line_1", a.AddressLine1},
		{"city", a.City},
		{"state_province", a.StateProvince},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Normalized trims surrounding whitespace from every field.
func (a Address) Normalized() Address {
	out := Address{
		FirstName:     strings.TrimSpace(a.FirstName),
		LastName:      strings.TrimSpace(a.LastName),
		AddressLine1:  strings.TrimSpace(a.AddressLine1),
		City:          strings.TrimSpace(a.City),
		StateProvince: strings.TrimSpace(a.StateProvince),
		PostalCode:    strings.TrimSpace(a.PostalCode),
		Country:       strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if a.AddressLine2 != nil {
		if line2 := strings.TrimSpace(*a.AddressLine2); line2 != "" {
			out.AddressLine2 = &line2
		}
	}
	if a.Phone != nil {
		if phone := strings.TrimSpace(*a.Phone); phone != "" {
			out.Phone = &phone
		}
	}
	return out
}

// Value marshals the address into its jsonb representation.
func (a Address) Value() (driver.Value, error) {
	if missing := a.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("address: missing %s", strings.Join(missing, ", "))
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	return string(raw), nil
}

// Scan decodes a jsonb address.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, a)
}

func toBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
