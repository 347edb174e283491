// Package transform flattens raw backend records into display records.
//
// Each display field is resolved by an ordered list of accessors; the first
// accessor that yields a value wins and "N/A" (or 0 for money) is the
// default. A record that cannot be transformed is replaced by
// model.ErrorRecord so that one bad record never hides the rest of a page.
package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/search"
)

// DefaultIDPrefix is prepended to the short display id.
const DefaultIDPrefix = "DO-"

const shortIDLen = 6

// ErrMissingID is returned for records with neither "_id" nor "id".
var ErrMissingID = errors.New("record has no id")

// accessor extracts one candidate value from a record.
type accessor func(model.RawRecord) (string, bool)

// path reads a string at a dot path.
func path(p string) accessor {
	return func(r model.RawRecord) (string, bool) { return r.String(p) }
}

// stringRule fills one string field of the display record.
type stringRule struct {
	name   string
	set    func(*model.DisplayRecord, string)
	chain  []accessor
	format func(string) (string, bool)
}

var (
	pickupLists = []string{"shipper.pickUpLocations", "pickupLocations", "origins"}
	dropLists   = []string{"consignee.dropLocations", "dropLocations", "destinations"}
)

var stringRules = []stringRule{
	{
		name:  "loadNumber",
		set:   func(d *model.DisplayRecord, v string) { d.LoadNumber = v },
		chain: []accessor{path("loadNumber"), path("load.loadNumber")},
	},
	{
		name:  "shipmentNo",
		set:   func(d *model.DisplayRecord, v string) { d.ShipmentNo = v },
		chain: []accessor{path("shipmentNo"), path("shipmentNumber"), path("shipper.shipmentNo")},
	},
	{
		name:  "containerNo",
		set:   func(d *model.DisplayRecord, v string) { d.ContainerNo = v },
		chain: []accessor{path("containerNo"), path("containerNumber"), path("container.number")},
	},
	{
		name:  "carrierName",
		set:   func(d *model.DisplayRecord, v string) { d.CarrierName = v },
		chain: []accessor{path("carrierName"), path("carrier.compName"), path("carrier.companyName")},
	},
	{
		name: "counterpart",
		set:  func(d *model.DisplayRecord, v string) { d.Counterpart = v },
		chain: []accessor{
			path("assignedTo.companyName"),
			path("acceptedBid.contactName"),
			path("carrier.companyName"),
			path("carrier.compName"),
		},
	},
	{
		name:  "shipper",
		set:   func(d *model.DisplayRecord, v string) { d.Shipper = v },
		chain: []accessor{path("shipper.compName"), path("shipper.companyName"), path("shipperName")},
	},
	{
		name:  "pickup",
		set:   func(d *model.DisplayRecord, v string) { d.Pickup = v },
		chain: locationChain("pickupLocation", pickupLists),
	},
	{
		name:  "drop",
		set:   func(d *model.DisplayRecord, v string) { d.Drop = v },
		chain: locationChain("dropLocation", dropLists),
	},
	{
		name: "pickupDate",
		set:  func(d *model.DisplayRecord, v string) { d.PickupDate = v },
		chain: []accessor{
			path("pickupDate"),
			path("shipper.pickUpLocations.0.pickUpDate"),
			path("pickupLocations.0.date"),
		},
		format: FormatDate,
	},
	{
		name: "dropDate",
		set:  func(d *model.DisplayRecord, v string) { d.DropDate = v },
		chain: []accessor{
			path("dropDate"),
			path("deliveryDate"),
			path("consignee.dropLocations.0.dropDate"),
			path("dropLocations.0.date"),
		},
		format: FormatDate,
	},
	{
		name:  "assignedToCMT",
		set:   func(d *model.DisplayRecord, v string) { d.AssignedToCMT = v },
		chain: []accessor{path("assignedToCMT"), path("assignedToCMT.empId")},
	},
	{
		name:  "createdByEmpId",
		set:   func(d *model.DisplayRecord, v string) { d.CreatedByEmpID = v },
		chain: []accessor{path("createdByEmpId"), path("createdBy.empId")},
	},
}

var rateFields = []string{"rate", "totalRate", "lineHaul"}

// locationChain resolves a location from a flat string field, then from the
// first location object in any of the list fields.
func locationChain(flat string, lists []string) []accessor {
	chain := []accessor{path(flat)}
	for _, l := range lists {
		chain = append(chain, firstLocation(l))
	}
	return chain
}

// firstLocation renders the first element of the list at p as "city, state",
// then city alone, then addressLine1.
func firstLocation(p string) accessor {
	return func(r model.RawRecord) (string, bool) {
		loc, ok := r.Object(p + ".0")
		if !ok {
			return "", false
		}
		city, hasCity := loc.String("city")
		state, hasState := loc.String("state")
		switch {
		case hasCity && hasState:
			return city + ", " + state, true
		case hasCity:
			return city, true
		}
		return loc.String("addressLine1")
	}
}

// Transformer converts raw records to display records. The zero value uses
// DefaultIDPrefix.
type Transformer struct {
	IDPrefix string
}

// Record transforms one raw record. It fails only when the record carries
// no id.
func (t Transformer) Record(raw model.RawRecord) (model.DisplayRecord, error) {
	id, ok := raw.String("_id")
	if !ok {
		id, ok = raw.String("id")
	}
	if !ok {
		return model.DisplayRecord{}, ErrMissingID
	}

	d := model.DisplayRecord{
		ID:        id,
		DisplayID: t.prefix() + shortID(id),
	}
	for _, rule := range stringRules {
		rule.set(&d, resolve(raw, rule))
	}
	status, _ := raw.String("status")
	d.Status = model.NormalizeStatus(status)
	for _, f := range rateFields {
		if v, ok := raw.Float(f); ok {
			d.Rate = v
			break
		}
	}
	return d, nil
}

// Page transforms raws in order. Records that fail, by error or panic, are
// replaced by model.ErrorRecord; the second result counts them.
func (t Transformer) Page(raws []model.RawRecord) ([]model.DisplayRecord, int) {
	out := make([]model.DisplayRecord, 0, len(raws))
	failed := 0
	for _, raw := range raws {
		d, err := t.safeRecord(raw)
		if err != nil {
			d = model.ErrorRecord()
			failed++
		}
		out = append(out, d)
	}
	return out, failed
}

func (t Transformer) safeRecord(raw model.RawRecord) (d model.DisplayRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transform panicked: %v", r)
		}
	}()
	return t.Record(raw)
}

func (t Transformer) prefix() string {
	if t.IDPrefix == "" {
		return DefaultIDPrefix
	}
	return t.IDPrefix
}

func resolve(raw model.RawRecord, rule stringRule) string {
	for _, get := range rule.chain {
		v, ok := get(raw)
		if !ok {
			continue
		}
		if rule.format != nil {
			if v, ok = rule.format(v); !ok {
				continue
			}
		}
		return v
	}
	return model.NotAvailable
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		id = id[len(id)-shortIDLen:]
	}
	return strings.ToUpper(id)
}

// FormatDate renders RFC3339 timestamps, YYYY-MM-DD, MM/DD/YYYY and
// MM-DD-YYYY as YYYY-MM-DD.
func FormatDate(s string) (string, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format(model.DateLayout), true
		}
	}
	return search.NormalizeDate(s)
}
