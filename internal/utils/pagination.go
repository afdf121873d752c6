// Package utils provides small helpers shared by the transport and service
// layers. They carry no marketplace rules.
package utils

import (
	"math"
	"strconv"
)

// Page bounds applied by Clamp. MaxPage keeps Offset within int range at
// any page size up to MaxPageSize.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = math.MaxInt / MaxPageSize
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds a requested page to [1, MaxPage] and a page size to
// [1, MaxPageSize].
func Clamp(page, pageSize int) (int, int) {
	page = min(max(page, 1), MaxPage)
	pageSize = min(max(pageSize, 1), MaxPageSize)
	return page, pageSize
}

// Offset is the number of items preceding page. It saturates at
// math.MaxInt instead of overflowing.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// Window returns the [start, end) bounds of page within total items. Pages
// past the end yield an empty window at total.
func Window(total, page, pageSize int) (start, end int) {
	page = max(page, 1)
	if pageSize < 1 || page-1 > total/pageSize {
		return total, total
	}
	start = min(Offset(page, pageSize), total)
	end = start + min(pageSize, total-start)
	return start, end
}

// TotalPages counts the pages needed for total items.
func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
