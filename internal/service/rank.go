package service

import (
	"cmp"
	"slices"
	"strings"

	"userconsole"
)

const (
	emptyFilteredMessage = "No users found for this filter."
	emptyListMessage     = "No users to display."
)

// Rank filters users by a case-insensitive substring of name or email and
// orders the result: the primary admin first, then admins, then the caller
// (selfID, 0 when unknown), then ascending id. users is not modified.
func Rank(users []userconsole.User, filterText string, selfID int) []userconsole.User {
	needle := strings.ToLower(strings.TrimSpace(filterText))

	out := make([]userconsole.User, 0, len(users))
	for _, u := range users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			out = append(out, u)
		}
	}

	slices.SortFunc(out, func(a, b userconsole.User) int {
		return compareUsers(a, b, selfID)
	})
	return out
}

func compareUsers(a, b userconsole.User, selfID int) int {
	if c := before(a.ID == userconsole.PrimaryAdminID, b.ID == userconsole.PrimaryAdminID); c != 0 {
		return c
	}
	if c := before(a.IsAdmin(), b.IsAdmin()); c != 0 {
		return c
	}
	if selfID != 0 {
		if c := before(a.ID == selfID, b.ID == selfID); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// before orders a matching value ahead of a non-matching one.
func before(a, b bool) int {
	switch {
	case a && !b:
		return -1
	case b && !a:
		return 1
	}
	return 0
}

// EmptyMessage is shown when Rank returns nothing.
func EmptyMessage(filterText string) string {
	if strings.TrimSpace(filterText) != "" {
		return emptyFilteredMessage
	}
	return emptyListMessage
}
