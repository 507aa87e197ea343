package board

import "fmt"

// Merge applies p on top of old field by field.
func Merge(old Task, p TaskPatch) Task {
	next := old
	next.Embedding = nil
	if p.BoardID != "" {
		next.BoardID = p.BoardID
	}
	if p.Title != "" {
		next.Title = p.Title
	}
	if p.Description != "" {
		next.Description = p.Description
	}
	if p.ListID != nil && *p.ListID != "" {
		next.ListID = *p.ListID
	}
	if p.Position != nil {
		next.Position = *p.Position
	}
	if p.AssigneeID.Set {
		if p.AssigneeID.Null || p.AssigneeID.Value == "" {
			next.AssigneeID = nil
		} else {
			id := p.AssigneeID.Value
			next.AssigneeID = &id
		}
	}
	return next
}

// Diff returns the audit entries for the transition old -> next, in emission
// order: moved, assigned/unassigned, updated.
func Diff(old, next Task, actor string) []Activity {
	var out []Activity
	add := func(action Action, details string) {
		out = append(out, Activity{TaskID: old.ID, UserID: actor, Action: action, Details: details})
	}

	if next.ListID != old.ListID {
		add(ActionMoved, fmt.Sprintf("moved to list %s", next.ListID))
	}

	// Reassignment between two members is not recorded.
	switch oldA, newA := old.assignee(), next.assignee(); {
	case oldA == "" && newA != "":
		add(ActionAssigned, fmt.Sprintf("assigned to %s", newA))
	case oldA != "" && newA == "":
		add(ActionUnassigned, "removed assignee")
	}

	if next.Description != old.Description {
		add(ActionUpdated, "updated description")
	}
	return out
}

// TextChanged reports whether the embedding of a task must be recomputed.
func TextChanged(old, next Task) bool {
	return old.Title != next.Title || old.Description != next.Description
}
