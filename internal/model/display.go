package model

import "strings"

// NotAvailable is the display value for any absent string field.
const NotAvailable = "N/A"

// Status buckets shown in list views.
const (
	StatusAvailable = "available"
	StatusAssigned  = "assigned"
	StatusInTransit = "in-transit"
	StatusCompleted = "completed"
)

// NormalizeStatus maps the backend status vocabulary onto a display bucket.
// Matching is case-insensitive; unknown statuses pass through lowercased.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return StatusAvailable
	case "posted", "bidding":
		return StatusAvailable
	case "assigned":
		return StatusAssigned
	case "in transit", "in-transit", "in_transit":
		return StatusInTransit
	case "completed", "delivered":
		return StatusCompleted
	}
	return s
}

// DisplayRecord is the flat, display-ready projection of one delivery order.
type DisplayRecord struct {
	ID             string  `json:"id"`
	DisplayID      string  `json:"display_id"`
	LoadNumber     string  `json:"load_number"`
	ShipmentNo     string  `json:"shipment_no"`
	ContainerNo    string  `json:"container_no"`
	CarrierName    string  `json:"carrier_name"`
	Counterpart    string  `json:"counterpart"`
	Shipper        string  `json:"shipper"`
	Pickup         string  `json:"pickup"`
	Drop           string  `json:"drop"`
	PickupDate     string  `json:"pickup_date"`
	DropDate       string  `json:"drop_date"`
	Status         string  `json:"status"`
	Rate           float64 `json:"rate"`
	AssignedToCMT  string  `json:"assigned_to_cmt"`
	CreatedByEmpID string  `json:"created_by_emp_id"`
	Failed         bool    `json:"failed,omitempty"`
}

// Placeholder values for records that could not be transformed.
const (
	ErrorRecordID = "__transform_error__"
	ErrorMarker   = "Error"
)

// ErrorRecord returns the placeholder substituted for a record that failed
// to transform. Every display string is set to ErrorMarker.
func ErrorRecord() DisplayRecord {
	return DisplayRecord{
		ID:             ErrorRecordID,
		DisplayID:      ErrorMarker,
		LoadNumber:     ErrorMarker,
		ShipmentNo:     ErrorMarker,
		ContainerNo:    ErrorMarker,
		CarrierName:    ErrorMarker,
		Counterpart:    ErrorMarker,
		Shipper:        ErrorMarker,
		Pickup:         ErrorMarker,
		Drop:           ErrorMarker,
		PickupDate:     ErrorMarker,
		DropDate:       ErrorMarker,
		Status:         ErrorMarker,
		AssignedToCMT:  ErrorMarker,
		CreatedByEmpID: ErrorMarker,
		Failed:         true,
	}
}

// Pagination describes where the current page sits in the full result set.
type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

// NewPagination derives TotalPages from totalItems and clamps page into
// [1, max(TotalPages, 1)].
func NewPagination(page, perPage, totalItems int) Pagination {
	if totalItems < 0 {
		totalItems = 0
	}
	p := Pagination{TotalItems: totalItems, ItemsPerPage: perPage}
	if perPage > 0 {
		p.TotalPages = (totalItems + perPage - 1) / perPage
	}
	p.CurrentPage = min(max(page, 1), max(p.TotalPages, 1))
	return p
}
