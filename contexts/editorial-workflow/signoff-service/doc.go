// Package signoffservice implements the multi-approver sign-off workflow
// inside the editorial-workflow context.
//
// A content item becomes publication-ready once a quorum of moderators
// (ceil of half the effective moderator set) approve it; any single
// outstanding change request blocks readiness regardless of the approval
// count. The module owns the approval state machine, the moderator
// directory resolution (role-qualified users filtered by an allow-list),
// the vote store contract, and the changes-done notification flow. Host
// concerns (user directory, edit rights, content items, mail transport)
// stay behind ports and adapters.
package signoffservice
