package store

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"p9e.in/sitebook/models"
)

// "" and "all" disable a select filter.
func anyValue(v string) bool { return v == "" || v == "all" }

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Filter keeps projects whose name or location contains search and whose
// status matches.
func (s *ProjectStore) Filter(list []models.Project, search, status string) []models.Project {
	out := make([]models.Project, 0, len(list))
	for _, p := range list {
		if search != "" && !containsFold(p.Name, search) && !containsFold(p.Location, search) {
			continue
		}
		if !anyValue(status) && string(p.Status) != status {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *ProjectStore) CountByStatus(list []models.Project) map[models.ProjectStatus]int {
	counts := make(map[models.ProjectStatus]int, len(models.ProjectStatuses))
	for _, st := range models.ProjectStatuses {
		counts[st] = 0
	}
	for _, p := range list {
		counts[p.Status]++
	}
	return counts
}

// Filter keeps members whose name, role or specialty contains search and
// whose role matches.
func (s *TeamMemberStore) Filter(list []models.TeamMember, search, role string) []models.TeamMember {
	out := make([]models.TeamMember, 0, len(list))
	for _, m := range list {
		if search != "" && !containsFold(m.Name, search) && !containsFold(m.Role, search) && !containsFold(m.Specialty, search) {
			continue
		}
		if !anyValue(role) && m.Role != role {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Roles lists the distinct non-empty roles, sorted.
func (s *TeamMemberStore) Roles(list []models.TeamMember) []string {
	seen := make(map[string]bool)
	roles := []string{}
	for _, m := range list {
		if m.Role == "" || seen[m.Role] {
			continue
		}
		seen[m.Role] = true
		roles = append(roles, m.Role)
	}
	sort.Strings(roles)
	return roles
}

func (s *TeamMemberStore) CountByStatus(list []models.TeamMember) map[models.MemberStatus]int {
	counts := make(map[models.MemberStatus]int, len(models.MemberStatuses))
	for _, st := range models.MemberStatuses {
		counts[st] = 0
	}
	for _, m := range list {
		counts[m.Status]++
	}
	return counts
}

func (s *MaterialRequestStore) CountByStatus(list []models.MaterialRequest) map[models.RequestStatus]int {
	counts := make(map[models.RequestStatus]int, len(models.RequestStatuses))
	for _, st := range models.RequestStatuses {
		counts[st] = 0
	}
	for _, r := range list {
		counts[r.Status]++
	}
	return counts
}

// Filter keeps updates whose project name, author or description contains
// search, limited to projectID unless it is uuid.Nil. projectNames maps
// project ids to names.
func (s *ProgressUpdateStore) Filter(list []models.ProgressUpdate, projectNames map[uuid.UUID]string, search string, projectID uuid.UUID) []models.ProgressUpdate {
	out := make([]models.ProgressUpdate, 0, len(list))
	for _, u := range list {
		if projectID != uuid.Nil && u.ProjectID != projectID {
			continue
		}
		if search != "" && !containsFold(projectNames[u.ProjectID], search) &&
			!containsFold(u.UpdatedBy, search) && !containsFold(u.Description, search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

type ProgressStats struct {
	Total           int `json:"total"`
	Today           int `json:"today"`
	Projects        int `json:"projects"`
	AverageProgress int `json:"average_progress"`
}

// Stats summarises list for the progress page header. today decides which
// updates count as made today.
func (s *ProgressUpdateStore) Stats(list []models.ProgressUpdate, today time.Time) ProgressStats {
	st := ProgressStats{Total: len(list)}
	if len(list) == 0 {
		return st
	}
	day := models.NewDate(today).String()
	projects := make(map[uuid.UUID]bool)
	var sum int
	for _, u := range list {
		if u.UpdateDate.String() == day {
			st.Today++
		}
		projects[u.ProjectID] = true
		sum += u.ProgressPercentage
	}
	st.Projects = len(projects)
	st.AverageProgress = int(math.Round(float64(sum) / float64(len(list))))
	return st
}
