package analytics

import (
	"sort"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// CohortMonths is the number of month offsets tracked per cohort.
const CohortMonths = 12

const oneDay = 24 * time.Hour

type customerAcc struct {
	key    string
	ref    analytics.CustomerRef
	spent  decimal.Decimal
	orders int
	first  time.Time
	last   time.Time
}

// groupCustomers folds sale orders by customer identity. Orders without any
// identity are ignored.
func groupCustomers(orders []analytics.Order) map[string]*customerAcc {
	out := make(map[string]*customerAcc)
	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		key := o.Customer.IdentityKey()
		if key == "" {
			continue
		}
		acc, ok := out[key]
		if !ok {
			acc = &customerAcc{key: key, ref: o.Customer, first: o.CreatedAt, last: o.CreatedAt}
			out[key] = acc
		}
		acc.spent = acc.spent.Add(o.Amount())
		acc.orders++
		if o.CreatedAt.Before(acc.first) {
			acc.first = o.CreatedAt
		}
		if o.CreatedAt.After(acc.last) {
			acc.last = o.CreatedAt
			if o.Customer.Name != "" {
				acc.ref.Name = o.Customer.Name
			}
		}
		if acc.ref.Email == "" {
			acc.ref.Email = o.Customer.Email
		}
	}
	return out
}

// CustomerProfiles scores every customer in orders as of asOf, highest
// spenders first.
func CustomerProfiles(orders []analytics.Order, asOf time.Time) []analytics.CustomerProfile {
	customers := groupCustomers(orders)
	out := make([]analytics.CustomerProfile, 0, len(customers))
	for _, c := range customers {
		since := max(asOf.Sub(c.last), 0)
		daysSince := since.Hours() / 24

		avgInterval := 0.0
		if c.orders > 1 {
			avgInterval = c.last.Sub(c.first).Hours() / 24 / float64(c.orders-1)
		}

		r := analytics.RecencyScore(int(since / oneDay))
		f := analytics.FrequencyScore(c.orders)
		m := analytics.MonetaryScore(c.spent.InexactFloat64())

		out = append(out, analytics.CustomerProfile{
			CustomerID:           c.key,
			Email:                c.ref.NormalizedEmail(),
			Name:                 c.ref.Name,
			TotalSpent:           c.spent,
			OrderCount:           c.orders,
			FirstOrder:           c.first,
			LastOrder:            c.last,
			DaysSinceLast:        int(since / oneDay),
			AvgInterPurchaseDays: avgInterval,
			Recency:              r,
			Frequency:            f,
			Monetary:             m,
			ChurnRisk:            analytics.ChurnRisk(c.orders, daysSince, avgInterval),
			Segment:              analytics.ClassifySegment(r, f, m),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalSpent.Cmp(out[j].TotalSpent); cmp != 0 {
			return cmp > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	return out
}

// SegmentSummary aggregates profiles per segment. Every segment is listed,
// empty ones with zero values.
func SegmentSummary(profiles []analytics.CustomerProfile) []analytics.CustomerSegment {
	type acc struct {
		customers int
		spent     decimal.Decimal
		orders    int
	}
	bySegment := make(map[analytics.Segment]*acc, len(analytics.AllSegments))
	for _, s := range analytics.AllSegments {
		bySegment[s] = &acc{}
	}
	for _, p := range profiles {
		a, ok := bySegment[p.Segment]
		if !ok {
			continue
		}
		a.customers++
		a.spent = a.spent.Add(p.TotalSpent)
		a.orders += p.OrderCount
	}

	total := decimal.NewFromInt(int64(len(profiles)))
	out := make([]analytics.CustomerSegment, 0, len(analytics.AllSegments))
	for _, s := range analytics.AllSegments {
		a := bySegment[s]
		seg := analytics.CustomerSegment{
			Segment:      s,
			Customers:    a.customers,
			Percentage:   percentOf(decimal.NewFromInt(int64(a.customers)), total),
			TotalSpent:   a.spent,
			AverageSpend: decimal.Zero,
		}
		if a.customers > 0 {
			seg.AverageSpend = a.spent.Div(decimal.NewFromInt(int64(a.customers)))
			seg.AverageOrders = float64(a.orders) / float64(a.customers)
		}
		out = append(out, seg)
	}
	return out
}

// Cohorts builds retention curves for customers acquired in each of the
// monthsBack calendar months ending with the month of asOf. A customer's
// cohort is the month of their first order in orders, so orders must reach
// back to the start of history; customers acquired before the reported
// months never appear. Offsets whose month lies in the future are not
// emitted, and empty cohorts are skipped.
func Cohorts(orders []analytics.Order, asOf time.Time, monthsBack int) []analytics.Cohort {
	type member struct {
		first  time.Time
		active map[int]struct{}
	}
	members := make(map[string]*member)
	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		key := o.Customer.IdentityKey()
		if key == "" {
			continue
		}
		m, ok := members[key]
		if !ok {
			m = &member{first: o.CreatedAt, active: make(map[int]struct{})}
			members[key] = m
		}
		if o.CreatedAt.Before(m.first) {
			m.first = o.CreatedAt
		}
		m.active[monthIndex(o.CreatedAt)] = struct{}{}
	}

	current := analytics.StartOfMonth(asOf)
	currentIdx := monthIndex(current)

	sizes := make(map[int]int)
	activeAt := make(map[int][]int)
	for _, m := range members {
		cohort := monthIndex(m.first)
		sizes[cohort]++
		counts := activeAt[cohort]
		if counts == nil {
			counts = make([]int, CohortMonths)
			activeAt[cohort] = counts
		}
		for offset := 0; offset < CohortMonths; offset++ {
			if _, ok := m.active[cohort+offset]; ok {
				counts[offset]++
			}
		}
	}

	out := make([]analytics.Cohort, 0, monthsBack)
	for back := monthsBack - 1; back >= 0; back-- {
		start := current.AddDate(0, -back, 0)
		idx := monthIndex(start)
		size := sizes[idx]
		if size == 0 {
			continue
		}
		offsets := min(CohortMonths, currentIdx-idx+1)
		retention := make([]float64, offsets)
		for k := 0; k < offsets; k++ {
			retention[k] = float64(activeAt[idx][k]) / float64(size) * 100
		}
		out = append(out, analytics.Cohort{
			Month:     start.Format("2006-01"),
			Start:     start,
			Size:      size,
			Retention: retention,
		})
	}
	return out
}

func monthIndex(t time.Time) int {
	y, m, _ := t.Date()
	return y*12 + int(m) - 1
}

// UnifyCustomers merges orders that share a normalized email into one
// customer, with a per-channel breakdown. Orders without an email are keyed
// by customer id.
func UnifyCustomers(orders []analytics.Order) []analytics.UnifiedCustomer {
	type acc struct {
		out      analytics.UnifiedCustomer
		ids      map[string]struct{}
		channels map[analytics.Channel]*analytics.ChannelStats
	}
	byKey := make(map[string]*acc)

	for i := range orders {
		o := &orders[i]
		if !o.CountsAsSale() {
			continue
		}
		email := o.Customer.NormalizedEmail()
		key := email
		if key == "" {
			if o.Customer.ID == "" {
				continue
			}
			key = "id:" + o.Customer.ID
		}

		a, ok := byKey[key]
		if !ok {
			a = &acc{
				out: analytics.UnifiedCustomer{
					Email:      email,
					TotalSpent: decimal.Zero,
					FirstOrder: o.CreatedAt,
					LastOrder:  o.CreatedAt,
				},
				ids:      make(map[string]struct{}),
				channels: make(map[analytics.Channel]*analytics.ChannelStats),
			}
			byKey[key] = a
		}

		amount := o.Amount()
		a.out.TotalSpent = a.out.TotalSpent.Add(amount)
		a.out.OrderCount++
		if a.out.Name == "" {
			a.out.Name = o.Customer.Name
		}
		if o.Customer.ID != "" {
			a.ids[o.Customer.ID] = struct{}{}
		}
		if o.CreatedAt.Before(a.out.FirstOrder) {
			a.out.FirstOrder = o.CreatedAt
		}
		if o.CreatedAt.After(a.out.LastOrder) {
			a.out.LastOrder = o.CreatedAt
		}

		cs, ok := a.channels[o.Channel]
		if !ok {
			cs = &analytics.ChannelStats{Channel: o.Channel, Spent: decimal.Zero}
			a.channels[o.Channel] = cs
		}
		cs.Orders++
		cs.Spent = cs.Spent.Add(amount)
	}

	out := make([]analytics.UnifiedCustomer, 0, len(byKey))
	for _, a := range byKey {
		u := a.out
		u.CustomerIDs = make([]string, 0, len(a.ids))
		for id := range a.ids {
			u.CustomerIDs = append(u.CustomerIDs, id)
		}
		sort.Strings(u.CustomerIDs)

		u.Channels = make([]analytics.Channel, 0, len(a.channels))
		u.ByChannel = make([]analytics.ChannelStats, 0, len(a.channels))
		for ch, cs := range a.channels {
			u.Channels = append(u.Channels, ch)
			u.ByChannel = append(u.ByChannel, *cs)
		}
		sort.Slice(u.Channels, func(i, j int) bool { return u.Channels[i] < u.Channels[j] })
		sort.Slice(u.ByChannel, func(i, j int) bool { return u.ByChannel[i].Channel < u.ByChannel[j].Channel })
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalSpent.Cmp(out[j].TotalSpent); c != 0 {
			return c > 0
		}
		return out[i].Email < out[j].Email
	})
	return out
}
