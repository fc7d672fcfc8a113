package domain

import "strconv"

// FormatNGN renders an integer naira amount as a display string in the
// storefront's locale, e.g. 1234567 -> "₦1,234,567". The mapping is
// deterministic: the same amount always yields the same string.
func FormatNGN(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, d)
	}
	return sign + "₦" + string(grouped)
}
