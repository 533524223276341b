// Package group holds study-group metadata attached to subscriptions.
package group

// Info describes a study group as reported by the CRM.
type Info struct {
	ID       string
	Type     string
	Teachers []string
}

// PrimaryTeacher returns the first assigned teacher, or "-" when the group
// has none. Report columns expect the dash placeholder.
func (i Info) PrimaryTeacher() string {
	if len(i.Teachers) == 0 || i.Teachers[0] == "" {
		return "-"
	}
	return i.Teachers[0]
}
