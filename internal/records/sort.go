package records

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField is a record attribute items can be ordered by.
type SortField string

const (
	SortByID        SortField = "id"
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "created_at"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortField accepts a field name in any case.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByID, SortByName, SortByCreatedAt:
		return f, nil
	case "createdat", "created":
		return SortByCreatedAt, nil
	default:
		return "", fmt.Errorf("unknown sort field %q (want id, name or created_at)", s)
	}
}

// ParseSortDirection accepts asc or desc in any case.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case Ascending, Descending:
		return d, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q (want asc or desc)", s)
	}
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortRecords returns a sorted copy of items. The sort is stable, names
// use the collation of tag, and Descending reverses the comparison.
func SortRecords(items []Record, field SortField, direction SortDirection, tag language.Tag) []Record {
	sorted := make([]Record, len(items))
	copy(sorted, items)

	var cmp func(a, b Record) int
	switch field {
	case SortByName:
		col := collate.New(tag)
		cmp = func(a, b Record) int { return col.CompareString(a.Name, b.Name) }
	case SortByCreatedAt:
		cmp = func(a, b Record) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		cmp = func(a, b Record) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		}
	}

	if direction == Descending {
		sort.SliceStable(sorted, func(i, j int) bool { return cmp(sorted[j], sorted[i]) < 0 })
	} else {
		sort.SliceStable(sorted, func(i, j int) bool { return cmp(sorted[i], sorted[j]) < 0 })
	}
	return sorted
}

// Filter keeps records whose name contains query (case-insensitive) or
// whose decimal id contains it. An empty query keeps everything.
func Filter(items []Record, query string) []Record {
	if query == "" {
		out := make([]Record, len(items))
		copy(out, items)
		return out
	}

	q := strings.ToLower(query)
	out := make([]Record, 0, len(items))
	for _, r := range items {
		if strings.Contains(strings.ToLower(r.Name), q) ||
			strings.Contains(strconv.FormatInt(r.ID, 10), q) {
			out = append(out, r)
		}
	}
	return out
}
