package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListParamsNormalized(t *testing.T) {
	cases := []struct {
		name string
		in   ListParams
		want ListParams
	}{
		{"defaults", ListParams{}, ListParams{Page: 1, PerPage: 25}},
		{"negative page", ListParams{Page: -3, PerPage: 10}, ListParams{Page: 1, PerPage: 10}},
		{"per page capped", ListParams{Page: 2, PerPage: 500}, ListParams{Page: 2, PerPage: 25}},
		{"search trimmed", ListParams{Search: "  imp  "}, ListParams{Page: 1, PerPage: 25, Search: "imp"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.normalized())
		})
	}
}

func TestListForPartyQuery_SearchMatchesAssignedAttendee(t *testing.T) {
	params := ListParams{Page: 2, PerPage: 10, Search: "imp"}.normalized()
	q, args := listForPartyQuery(7, params)

	// The screen name filter must apply to the user the ticket is
	// assigned to, not to its owner.
	assert.Contains(t, q, "attendee.id = t.used_by_id")
	assert.Contains(t, q, "attendee.screen_name LIKE ?")
	assert.NotContains(t, q, "owner.screen_name")

	require.Len(t, args, 5)
	assert.Equal(t, uint64(7), args[0])
	assert.Equal(t, "%imp%", args[1])
	assert.Equal(t, "%imp%", args[2])
	assert.Equal(t, 10, args[3])
	assert.Equal(t, 10, args[4])
}

func TestListForPartyQuery_InUseFilter(t *testing.T) {
	q, args := listForPartyQuery(7, ListParams{OnlyInUse: true}.normalized())

	assert.Contains(t, q, "t.revoked = FALSE")
	assert.Contains(t, q, "t.used_by_id IS NOT NULL")
	require.Len(t, args, 3)
	assert.Equal(t, uint64(7), args[0])
}

func TestListForPartyQuery_NoSearchNoFilter(t *testing.T) {
	q, args := listForPartyQuery(7, ListParams{}.normalized())

	assert.NotContains(t, q, "LIKE")
	require.Len(t, args, 3)
	assert.Equal(t, 25, args[1])
	assert.Equal(t, 0, args[2])
}

func TestCountForPartyQuery_CountsOnlySold(t *testing.T) {
	q, args := countForPartyQuery(7, false)
	assert.Contains(t, q, "t.revoked = FALSE")
	assert.NotContains(t, q, "used_by_id")
	require.Len(t, args, 1)

	qInUse, _ := countForPartyQuery(7, true)
	assert.Contains(t, qInUse, "t.revoked = FALSE")
	assert.Contains(t, qInUse, "t.used_by_id IS NOT NULL")
}
