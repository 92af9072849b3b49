// Package roster filters, sorts, groups and summarizes the team grid.
//
// Team members are fetched wholesale and every view over them is computed in
// memory, so the functions here are pure and never touch the database.
package roster

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
)

var ErrUnknownField = errors.New("unknown field")

// Filter selects team members. Zero-valued fields match everything.
type Filter struct {
	Query         string
	Statuses      []models.AssignmentStatus
	Roles         []models.Role
	Certification string
	// Members whose allocation overlaps [From, Till] match. A nil bound is
	// open.
	From *time.Time
	Till *time.Time
}

func (f Filter) IsZero() bool {
	return f.Query == "" && len(f.Statuses) == 0 && len(f.Roles) == 0 &&
		f.Certification == "" && f.From == nil && f.Till == nil
}

func (f Filter) Match(m models.TeamMember) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, m.Status()) {
		return false
	}
	if len(f.Roles) > 0 && !slices.Contains(f.Roles, m.User.Role) {
		return false
	}
	if f.Certification != "" && !hasCertification(m, f.Certification) {
		return false
	}
	if (f.From != nil || f.Till != nil) && !overlaps(m.Assignment, f.From, f.Till) {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" && !matchesQuery(m, strings.ToLower(q)) {
		return false
	}
	return true
}

// Apply returns the members matching f in their original order.
func Apply(members []models.TeamMember, f Filter) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(members))
	for _, m := range members {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}

func matchesQuery(m models.TeamMember, q string) bool {
	fields := []string{m.User.Name, m.User.Email}
	if m.Assignment != nil {
		fields = append(fields, m.Assignment.ProjectName)
	}
	fields = append(fields, m.User.Skills...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func hasCertification(m models.TeamMember, name string) bool {
	for _, c := range m.Certifications {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func overlaps(a *models.ProjectAssignment, from, till *time.Time) bool {
	if a == nil || a.AllocatedFrom == nil {
		return false
	}
	start := *a.AllocatedFrom
	if till != nil && start.After(*till) {
		return false
	}
	if from != nil && a.AllocatedTill != nil && a.AllocatedTill.Before(*from) {
		return false
	}
	return true
}

type SortField string

const (
	SortName          SortField = "name"
	SortStatus        SortField = "status"
	SortRole          SortField = "role"
	SortProject       SortField = "project"
	SortAllocatedFrom SortField = "allocated_from"
	SortAllocatedTill SortField = "allocated_till"
	SortCompletion    SortField = "completion"
)

type SortKey struct {
	Field SortField
	Desc  bool
}

// ParseSort reads a comma separated key list such as "status,-name". A
// leading '-' sorts that key descending.
func ParseSort(s string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := SortKey{}
		if strings.HasPrefix(part, "-") {
			key.Desc = true
			part = part[1:]
		}
		key.Field = SortField(part)
		switch key.Field {
		case SortName, SortStatus, SortRole, SortProject, SortAllocatedFrom, SortAllocatedTill, SortCompletion:
		default:
			return nil, fmt.Errorf("%w: sort %q", ErrUnknownField, part)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Sort orders members in place by keys. The sort is stable, and members
// without a date sort after those with one whatever the direction.
func Sort(members []models.TeamMember, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(members, func(a, b models.TeamMember) int {
		for _, k := range keys {
			if c := compareBy(a, b, k); c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareBy(a, b models.TeamMember, k SortKey) int {
	var c int
	switch k.Field {
	case SortName:
		c = cmp.Compare(strings.ToLower(a.User.Name), strings.ToLower(b.User.Name))
	case SortStatus:
		c = cmp.Compare(statusRank(a.Status()), statusRank(b.Status()))
	case SortRole:
		c = cmp.Compare(roleRank(a.User.Role), roleRank(b.User.Role))
	case SortProject:
		c = cmp.Compare(strings.ToLower(project(a)), strings.ToLower(project(b)))
	case SortCompletion:
		c = cmp.Compare(CompletionRate(a), CompletionRate(b))
	case SortAllocatedFrom, SortAllocatedTill:
		ta, tb := allocationDate(a, k.Field), allocationDate(b, k.Field)
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return 1
		case tb == nil:
			return -1
		}
		c = ta.Compare(*tb)
	}
	if k.Desc {
		return -c
	}
	return c
}

func allocationDate(m models.TeamMember, f SortField) *time.Time {
	if m.Assignment == nil {
		return nil
	}
	if f == SortAllocatedFrom {
		return m.Assignment.AllocatedFrom
	}
	return m.Assignment.AllocatedTill
}

func project(m models.TeamMember) string {
	if m.Assignment == nil {
		return ""
	}
	return m.Assignment.ProjectName
}

func statusRank(s models.AssignmentStatus) int {
	if i := slices.Index(models.AssignmentStatuses(), s); i >= 0 {
		return i
	}
	return len(models.AssignmentStatuses())
}

func roleRank(r models.Role) int {
	if i := slices.Index(models.AllRoles(), r); i >= 0 {
		return i
	}
	return len(models.AllRoles())
}

type GroupBy string

const (
	GroupByStatus  GroupBy = "status"
	GroupByRole    GroupBy = "role"
	GroupByProject GroupBy = "project"
)

type Group struct {
	Key     string              `json:"key"`
	Members []models.TeamMember `json:"members"`
}

// GroupMembers buckets members by the given dimension. Status and role
// groups follow their fixed display order; project groups follow first
// appearance. Empty groups are omitted.
func GroupMembers(members []models.TeamMember, by GroupBy) ([]Group, error) {
	var keyOf func(models.TeamMember) string
	var order []string
	switch by {
	case GroupByStatus:
		keyOf = func(m models.TeamMember) string { return string(m.Status()) }
		for _, s := range models.AssignmentStatuses() {
			order = append(order, string(s))
		}
	case GroupByRole:
		keyOf = func(m models.TeamMember) string { return string(m.User.Role) }
		for _, r := range models.AllRoles() {
			order = append(order, string(r))
		}
	case GroupByProject:
		keyOf = project
	default:
		return nil, fmt.Errorf("%w: group %q", ErrUnknownField, by)
	}

	buckets := make(map[string][]models.TeamMember)
	for _, m := range members {
		k := keyOf(m)
		if _, ok := buckets[k]; !ok && !slices.Contains(order, k) {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], m)
	}

	groups := make([]Group, 0, len(buckets))
	for _, k := range order {
		if ms, ok := buckets[k]; ok {
			groups = append(groups, Group{Key: k, Members: ms})
		}
	}
	return groups, nil
}

type Summary struct {
	Total       int `json:"total"`
	Allocated   int `json:"allocated"`
	Free        int `json:"free"`
	Training    int `json:"training"`
	OnLeave     int `json:"on_leave"`
	Utilization int `json:"utilization"`
}

// Summarize counts members per status. Utilization is the allocated share
// of the team in whole percent, rounded down.
func Summarize(members []models.TeamMember) Summary {
	s := Summary{Total: len(members)}
	for _, m := range members {
		switch m.Status() {
		case models.StatusAllocated:
			s.Allocated++
		case models.StatusFree:
			s.Free++
		case models.StatusTraining:
			s.Training++
		case models.StatusOnLeave:
			s.OnLeave++
		}
	}
	if s.Total > 0 {
		s.Utilization = s.Allocated * 100 / s.Total
	}
	return s
}

// CompletionRate is the share of a member's certifications completed, in
// whole percent.
func CompletionRate(m models.TeamMember) int {
	if len(m.Certifications) == 0 {
		return 0
	}
	done := 0
	for _, c := range m.Certifications {
		if c.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(m.Certifications))))
}

// AverageCompletion rounds the mean completion rate of members.
func AverageCompletion(members []models.TeamMember) int {
	if len(members) == 0 {
		return 0
	}
	sum := 0
	for _, m := range members {
		sum += CompletionRate(m)
	}
	return int(math.Round(float64(sum) / float64(len(members))))
}

type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

func BandFor(rate int) Band {
	switch {
	case rate >= 75:
		return BandHigh
	case rate >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// Query bundles a filter, sort order and optional grouping, the way the team
// endpoint receives them.
type Query struct {
	Filter Filter
	Sort   []SortKey
	Group  GroupBy
}

type Result struct {
	Members []models.TeamMember `json:"members,omitempty"`
	Groups  []Group             `json:"groups,omitempty"`
	Summary Summary             `json:"summary"`
	// Average certification completion of the matching members.
	AverageCompletion int `json:"average_completion"`
}

// Run filters, sorts and groups members. The summary covers the filtered
// members. The input slice is not modified.
func Run(members []models.TeamMember, q Query) (*Result, error) {
	matched := Apply(members, q.Filter)
	Sort(matched, q.Sort)

	res := &Result{
		Summary:           Summarize(matched),
		AverageCompletion: AverageCompletion(matched),
	}
	if q.Group == "" {
		res.Members = matched
		return res, nil
	}
	groups, err := GroupMembers(matched, q.Group)
	if err != nil {
		return nil, err
	}
	res.Groups = groups
	return res, nil
}
