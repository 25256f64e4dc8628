package engine

import (
	"math"
	"sort"

	"sheetfeed/internal/coerce"
	"sheetfeed/internal/decode"
)

// Stats are the headline dashboard numbers derived from the legacy groups.
type Stats struct {
	Leads          int
	Purchases      int
	Revenue        float64
	ConversionRate float64 // percent, rounded to one decimal
}

// Summarize computes dashboard stats from the (already filtered) lead and
// checkout groups. Records without a numeric Amount contribute 0 to revenue.
func Summarize(leads, checkout []decode.Record) Stats {
	s := Stats{Leads: len(leads), Purchases: len(checkout)}
	for _, r := range checkout {
		if amt, ok := r["Amount"].(float64); ok {
			s.Revenue += amt
		}
	}
	if s.Leads > 0 {
		s.ConversionRate = math.Round(float64(s.Purchases)/float64(s.Leads)*1000) / 10
	}
	return s
}

// SeriesPoint is one charting bucket: all records sharing a Date string.
type SeriesPoint struct {
	Date   string
	Amount float64
	Count  int
}

// RevenueSeries groups checkout records by their Date string, summing
// amounts and counting purchases per day, ordered by parsed date.
//
// Grouping is by the original string, not the parsed value, so two spellings
// of the same day chart as separate points, matching what the sheet's owner
// actually typed. Buckets whose date does not parse sort after the rest.
func RevenueSeries(checkout []decode.Record) []SeriesPoint {
	byDate := map[string]*SeriesPoint{}
	var order []string
	for _, r := range checkout {
		ds, _ := r["Date"].(string)
		p, ok := byDate[ds]
		if !ok {
			p = &SeriesPoint{Date: ds}
			byDate[ds] = p
			order = append(order, ds)
		}
		if amt, ok := r["Amount"].(float64); ok {
			p.Amount += amt
		}
		p.Count++
	}

	out := make([]SeriesPoint, 0, len(order))
	for _, ds := range order {
		out = append(out, *byDate[ds])
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, iok := coerce.Date(out[i].Date)
		dj, jok := coerce.Date(out[j].Date)
		switch {
		case iok && jok:
			return di.Before(dj)
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}
