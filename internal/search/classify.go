// Package search classifies free-text search input into the single
// structured filter field the delivery-order list endpoints understand.
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/model"
)

var (
	loadNumberRe = regexp.MustCompile(`(?i)^L\d+$`)
	employeeRe   = regexp.MustCompile(`(?i)^EMP[A-Za-z0-9]+$`)
	shipmentRe   = regexp.MustCompile(`^\d{6,}$`)
	containerRe  = regexp.MustCompile(`^[A-Za-z]{2,}\d+$`)

	isoDateRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDateRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	usDashedDateRe = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// rule maps a trimmed input to a field value, or reports no match.
type rule struct {
	field model.SearchField
	match func(s string) (string, bool)
}

// rules are evaluated in order and the first match wins. Patterns overlap,
// so the order is part of the contract.
var rules = []rule{
	{model.FieldLoadNumber, upperIf(loadNumberRe)},
	{model.FieldPickupDate, NormalizeDate},
	{model.FieldAssignedToCMT, upperIf(employeeRe)},
	{model.FieldShipmentNo, func(s string) (string, bool) { return s, shipmentRe.MatchString(s) }},
	{model.FieldContainerNo, upperIf(containerRe)},
}

func upperIf(re *regexp.Regexp) func(string) (string, bool) {
	return func(s string) (string, bool) {
		if !re.MatchString(s) {
			return "", false
		}
		return strings.ToUpper(s), true
	}
}

// Classifier turns raw search strings into search terms. The zero value is ready to use.
type Classifier struct{}

// Classify is shorthand for Classifier{}.Classify(raw).
func Classify(raw string) model.SearchTerm {
	return Classifier{}.Classify(raw)
}

// Classify returns the search term for raw. It never fails: input that no
// rule recognizes becomes a carrier-name substring search.
func (Classifier) Classify(raw string) model.SearchTerm {
	term := model.SearchTerm{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return term
	}
	for _, r := range rules {
		if v, ok := r.match(s); ok {
			term.Field, term.Value = r.field, v
			return term
		}
	}
	term.Field, term.Value = model.FieldCarrierName, s
	return term
}

// NormalizeDate converts YYYY-MM-DD, MM/DD/YYYY or MM-DD-YYYY (with optional
// zero padding) to YYYY-MM-DD. Strings that have a date shape but name no
// real calendar day are rejected.
func NormalizeDate(s string) (string, bool) {
	var y, m, d string
	if g := isoDateRe.FindStringSubmatch(s); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := slashDateRe.FindStringSubmatch(s); g != nil {
		m, d, y = g[1], g[2], g[3]
	} else if g := usDashedDateRe.FindStringSubmatch(s); g != nil {
		m, d, y = g[1], g[2], g[3]
	} else {
		return "", false
	}

	mi, _ := strconv.Atoi(m)
	di, _ := strconv.Atoi(d)
	out := fmt.Sprintf("%s-%02d-%02d", y, mi, di)
	if _, err := time.Parse(model.DateLayout, out); err != nil {
		return "", false
	}
	return out, true
}
