package bill

import "sort"

// SortByDateDesc orders bills most recent first. Dates are compared as
// raw YYYY-MM-DD strings, which sort lexicographically in calendar order
// because every component is zero-padded. Ties keep their store order.
func SortByDateDesc(bills []DisplayBill) {
	sort.SliceStable(bills, func(i, j int) bool {
		return bills[i].Date > bills[j].Date
	})
}
