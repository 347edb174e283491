package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestSearchField_IsValid(t *testing.T) {
	for _, tc := range []struct {
		field SearchField
		want  bool
	}{
		{FieldLoadNumber, true},
		{FieldShipmentNo, true},
		{FieldCarrierName, true},
		{FieldContainerNo, true},
		{FieldPickupDate, true},
		{FieldAssignedToCMT, true},
		{FieldCreatedByEmpID, true},
		{FieldNone, false},
		{SearchField("bogus"), false},
	} {
		if got := tc.field.IsValid(); got != tc.want {
			t.Errorf("SearchField(%q).IsValid() = %v, want %v", tc.field, got, tc.want)
		}
	}
}

func TestSearchTerm_Get(t *testing.T) {
	term := SearchTerm{Raw: "l0618", Field: FieldLoadNumber, Value: "L0618"}

	if v, ok := term.Get(FieldLoadNumber); !ok || v != "L0618" {
		t.Errorf("Get(loadNumber) = (%q, %v), want (L0618, true)", v, ok)
	}
	for _, f := range SearchFields {
		if f == FieldLoadNumber {
			continue
		}
		if _, ok := term.Get(f); ok {
			t.Errorf("Get(%s) ok = true, want false", f)
		}
	}
	if _, ok := (SearchTerm{}).Get(FieldNone); ok {
		t.Error("empty term Get(FieldNone) ok = true, want false")
	}
}

func TestSearchTerm_MarshalJSON(t *testing.T) {
	term := SearchTerm{Raw: "03/09/2024", Field: FieldPickupDate, Value: "2024-03-09"}
	data, err := json.Marshal(term)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]*string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("got %d keys, want 7: %s", len(got), data)
	}
	for k, v := range got {
		if k == "pickupDate" {
			if v == nil || *v != "2024-03-09" {
				t.Errorf("pickupDate = %v, want 2024-03-09", v)
			}
			continue
		}
		if v != nil {
			t.Errorf("%s = %q, want null", k, *v)
		}
	}
}

func TestNewDateRange(t *testing.T) {
	d1 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		name       string
		start, end time.Time
		wantErr    bool
	}{
		{"BothZero", time.Time{}, time.Time{}, false},
		{"BothSet", d1, d2, false},
		{"SameDay", d1, d1, false},
		{"OnlyStart", d1, time.Time{}, true},
		{"OnlyEnd", time.Time{}, d2, true},
		{"Reversed", d2, d1, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDateRange(tc.start, tc.end)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDateRange) {
					t.Fatalf("err = %v, want ErrInvalidDateRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-05", "2024-02-01")
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if r.StartISO() != "2024-01-05" || r.EndISO() != "2024-02-01" {
		t.Errorf("range = %s..%s", r.StartISO(), r.EndISO())
	}

	r, err = ParseDateRange("", "")
	if err != nil || !r.IsZero() {
		t.Errorf("empty range = %+v, %v; want zero, nil", r, err)
	}

	if _, err := ParseDateRange("2024-01-05", ""); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("half range err = %v, want ErrInvalidDateRange", err)
	}
	if _, err := ParseDateRange("01/05/2024", "2024-02-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("bad layout err = %v, want ErrInvalidDateRange", err)
	}
}

func TestQueryParams_Values(t *testing.T) {
	q := QueryParams{
		Search: SearchTerm{Raw: "l0618", Field: FieldLoadNumber, Value: "L0618"},
		Page:   1,
		Limit:  15,
	}
	if got := q.Values("").Encode(); got != "limit=15&loadNumber=L0618&page=1" {
		t.Errorf("Values() = %q", got)
	}

	dr, _ := ParseDateRange("2024-03-01", "2024-03-31")
	q = QueryParams{Page: 2, Limit: 15, Dates: dr, SecondaryFilter: "acme"}
	v := q.Values("departmentId")
	if v.Get("startDate") != "2024-03-01" || v.Get("endDate") != "2024-03-31" {
		t.Errorf("dates = %q..%q", v.Get("startDate"), v.Get("endDate"))
	}
	if v.Get("departmentId") != "acme" {
		t.Errorf("departmentId = %q, want acme", v.Get("departmentId"))
	}
	if v.Has("companyId") {
		t.Error("companyId should not be set when a custom parameter is configured")
	}

	if v := (QueryParams{Page: 1, SecondaryFilter: "x"}).Values(""); v.Get(DefaultSecondaryParam) != "x" {
		t.Errorf("default secondary param = %q, want x", v.Get(DefaultSecondaryParam))
	}
}

func TestQueryParams_CacheKey(t *testing.T) {
	base := QueryParams{Page: 3, Limit: 15}
	if got := base.CacheKey(); got != "3_all" {
		t.Errorf("CacheKey() = %q, want 3_all", got)
	}

	withFilter := base
	withFilter.SecondaryFilter = "c42"
	if got := withFilter.CacheKey(); got != "3_c42" {
		t.Errorf("CacheKey() = %q, want 3_c42", got)
	}

	a := base
	a.Search = SearchTerm{Field: FieldCarrierName, Value: "Acme"}
	b := base
	b.Search = SearchTerm{Field: FieldCarrierName, Value: "Zenith"}
	if a.CacheKey() == b.CacheKey() {
		t.Errorf("different searches share key %q", a.CacheKey())
	}
	if a.CacheKey() == base.CacheKey() {
		t.Error("search term must be part of the cache key")
	}

	dr, _ := ParseDateRange("2024-01-01", "2024-01-31")
	c := base
	c.Dates = dr
	if c.CacheKey() == base.CacheKey() {
		t.Error("date range must be part of the cache key")
	}
}

func TestQueryParams_CacheKey_FilterEscaping(t *testing.T) {
	key := func(filter string) string {
		return QueryParams{Page: 1, SecondaryFilter: filter}.CacheKey()
	}
	for _, tc := range []struct {
		name   string
		filter string
		want   string
	}{
		{"LiteralAll", "all", "1_%61ll"},
		{"Underscore", "acme_west", "1_acme%5Fwest"},
		{"Pipe", "a|b", "1_a%7Cb"},
		{"Space", "Blue Line", "1_Blue+Line"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := key(tc.filter); got != tc.want {
				t.Errorf("CacheKey() = %q, want %q", got, tc.want)
			}
		})
	}

	seen := map[string]string{}
	for _, f := range []string{"", "all", "%61ll", "a_b", "a%5Fb", "a|b"} {
		k := key(f)
		if prev, dup := seen[k]; dup {
			t.Errorf("filters %q and %q share key %q", prev, f, k)
		}
		seen[k] = f
	}
}

func TestNormalizeStatus(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"", StatusAvailable},
		{"Posted", StatusAvailable},
		{"BIDDING", StatusAvailable},
		{"assigned", StatusAssigned},
		{"In Transit", StatusInTransit},
		{"in_transit", StatusInTransit},
		{"Delivered", StatusCompleted},
		{"completed", StatusCompleted},
		{"On Hold", "on hold"},
	} {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewPagination(t *testing.T) {
	for _, tc := range []struct {
		name                   string
		page, perPage, total   int
		wantPages, wantCurrent int
	}{
		{"Exact", 1, 15, 30, 2, 1},
		{"Remainder", 2, 15, 31, 3, 2},
		{"Empty", 1, 15, 0, 0, 1},
		{"PageBeyondEnd", 9, 15, 20, 2, 2},
		{"PageBelowOne", 0, 15, 20, 2, 1},
		{"NoPerPage", 1, 0, 20, 0, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.perPage, tc.total)
			if p.TotalPages != tc.wantPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tc.wantPages)
			}
			if p.CurrentPage != tc.wantCurrent {
				t.Errorf("CurrentPage = %d, want %d", p.CurrentPage, tc.wantCurrent)
			}
		})
	}
}

func TestRawRecord_Lookup(t *testing.T) {
	var rec RawRecord
	if err := json.Unmarshal([]byte(`{
		"_id": "65a1b2c3d4e5f6a7b8c9d0e1",
		"rate": "1,250.50",
		"shipper": {"compName": "Acme", "pickUpLocations": [{"city": "Dallas", "state": "TX"}]},
		"weight": 4200
	}`), &rec); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got, _ := rec.String("shipper.pickUpLocations.0.city"); got != "Dallas" {
		t.Errorf("city = %q, want Dallas", got)
	}
	if _, ok := rec.String("shipper.pickUpLocations.1.city"); ok {
		t.Error("out-of-range index should be absent")
	}
	if _, ok := rec.String("shipper"); ok {
		t.Error("object should not read as a string")
	}
	if got, _ := rec.String("weight"); got != "4200" {
		t.Errorf("weight = %q, want 4200", got)
	}
	if got, ok := rec.Float("rate"); !ok || got != 1250.50 {
		t.Errorf("rate = (%v, %v), want (1250.5, true)", got, ok)
	}
	if _, ok := rec.Float("shipper.compName"); ok {
		t.Error("non-numeric string should not parse as float")
	}
	if first, ok := rec.First("shipper.pickUpLocations"); !ok || first == nil {
		t.Error("First(pickUpLocations) should return the first location")
	}
	if obj, ok := rec.Object("shipper"); !ok || obj["compName"] != "Acme" {
		t.Errorf("Object(shipper) = %v, %v", obj, ok)
	}
}
