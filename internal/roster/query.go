package roster

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// ParseQuery reads a Query from URL parameters:
//
//	q=search text  status=allocated,free  role=employee
//	certification=React  from=2024-01-01  till=2024-03-31
//	sort=status,-name  group=status
//
// get is typically url.Values.Get or a router's query accessor.
func ParseQuery(get func(string) string) (Query, error) {
	var q Query
	q.Filter.Query = strings.TrimSpace(get("q"))
	q.Filter.Certification = strings.TrimSpace(get("certification"))

	for _, s := range splitList(get("status")) {
		status := models.AssignmentStatus(s)
		if !validStatus(status) {
			return Query{}, fmt.Errorf("%w: status %q", ErrUnknownField, s)
		}
		q.Filter.Statuses = append(q.Filter.Statuses, status)
	}
	for _, s := range splitList(get("role")) {
		role, ok := models.ParseRole(s)
		if !ok {
			return Query{}, fmt.Errorf("%w: role %q", ErrUnknownField, s)
		}
		q.Filter.Roles = append(q.Filter.Roles, role)
	}

	var err error
	if q.Filter.From, err = parseDate(get("from")); err != nil {
		return Query{}, err
	}
	if q.Filter.Till, err = parseDate(get("till")); err != nil {
		return Query{}, err
	}

	if q.Sort, err = ParseSort(get("sort")); err != nil {
		return Query{}, err
	}
	if g := strings.TrimSpace(get("group")); g != "" {
		q.Group = GroupBy(g)
		switch q.Group {
		case GroupByStatus, GroupByRole, GroupByProject:
		default:
			return Query{}, fmt.Errorf("%w: group %q", ErrUnknownField, g)
		}
	}
	return q, nil
}

// Values encodes q in the form ParseQuery reads.
func (q Query) Values() url.Values {
	v := url.Values{}
	f := q.Filter
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Certification != "" {
		v.Set("certification", f.Certification)
	}
	if len(f.Statuses) > 0 {
		parts := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if len(f.Roles) > 0 {
		parts := make([]string, len(f.Roles))
		for i, r := range f.Roles {
			parts[i] = string(r)
		}
		v.Set("role", strings.Join(parts, ","))
	}
	if f.From != nil {
		v.Set("from", f.From.Format(dateLayout))
	}
	if f.Till != nil {
		v.Set("till", f.Till.Format(dateLayout))
	}
	if len(q.Sort) > 0 {
		parts := make([]string, len(q.Sort))
		for i, k := range q.Sort {
			parts[i] = string(k.Field)
			if k.Desc {
				parts[i] = "-" + parts[i]
			}
		}
		v.Set("sort", strings.Join(parts, ","))
	}
	if q.Group != "" {
		v.Set("group", string(q.Group))
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validStatus(s models.AssignmentStatus) bool {
	for _, known := range models.AssignmentStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}
