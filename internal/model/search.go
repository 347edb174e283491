package model

import "encoding/json"

// SearchField names the single structured filter a search string was
// classified into. The values double as the backend query parameter names.
type SearchField string

const (
	FieldNone           SearchField = ""
	FieldLoadNumber     SearchField = "loadNumber"
	FieldShipmentNo     SearchField = "shipmentNo"
	FieldCarrierName    SearchField = "carrierName"
	FieldContainerNo    SearchField = "containerNo"
	FieldPickupDate     SearchField = "pickupDate"
	FieldAssignedToCMT  SearchField = "assignedToCMT"
	FieldCreatedByEmpID SearchField = "createdByEmpId"
)

// SearchFields lists every structured field in wire order.
var SearchFields = []SearchField{
	FieldLoadNumber,
	FieldShipmentNo,
	FieldCarrierName,
	FieldContainerNo,
	FieldPickupDate,
	FieldAssignedToCMT,
	FieldCreatedByEmpID,
}

// String returns the string representation of the field.
func (f SearchField) String() string {
	return string(f)
}

// IsValid reports whether f is one of the seven structured fields.
func (f SearchField) IsValid() bool {
	for _, sf := range SearchFields {
		if f == sf {
			return true
		}
	}
	return false
}

// SearchTerm is the result of classifying one raw search string.
// At most one structured field is ever set: Field/Value hold it, and
// Field is FieldNone when the input was empty.
type SearchTerm struct {
	Raw   string
	Field SearchField
	Value string
}

// IsEmpty reports whether the term carries no filter.
func (t SearchTerm) IsEmpty() bool {
	return t.Field == FieldNone
}

// Get returns the value for field, and whether that field is the one set.
func (t SearchTerm) Get(field SearchField) (string, bool) {
	if field == FieldNone || t.Field != field {
		return "", false
	}
	return t.Value, true
}

// WithField returns a copy of t that carries the same value under field.
func (t SearchTerm) WithField(field SearchField) SearchTerm {
	t.Field = field
	return t
}

// MarshalJSON emits all seven structured fields, null for the unset ones.
func (t SearchTerm) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, len(SearchFields))
	for _, f := range SearchFields {
		if v, ok := t.Get(f); ok {
			out[string(f)] = &v
		} else {
			out[string(f)] = nil
		}
	}
	return json.Marshal(out)
}
