// Package format renders money and percentages for terminal display.
package format

import (
	"fmt"
	"strings"
)

// Money renders an amount with its currency symbol, grouping digits per the
// currency's convention. Rupee amounts use the Indian lakh/crore grouping,
// everything else groups by thousands.
func Money(currency string, amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	intPart, decPart, _ := strings.Cut(str, ".")

	var grouped string
	if currency == "₹" {
		grouped = groupIndian(intPart)
	} else {
		grouped = groupThousands(intPart)
	}

	result := currency + grouped + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupIndian groups an integer string in the Indian numbering system: a
// group of three on the right, then groups of two.
func groupIndian(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]
	for len(s) > 2 {
		result = s[len(s)-2:] + "," + result
		s = s[:len(s)-2]
	}
	return s + "," + result
}

// groupThousands groups an integer string by threes.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	return groupThousands(s[:n-3]) + "," + s[n-3:]
}

// Percent renders a signed percentage with two decimals.
func Percent(value float64) string {
	return fmt.Sprintf("%+.2f%%", value)
}

// Quantity renders a share count grouped by thousands.
func Quantity(qty int) string {
	return groupThousands(fmt.Sprintf("%d", qty))
}
