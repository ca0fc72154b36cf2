package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Storage-layer policy generation. The row-level security installed on the
// owned-resource tables is the authoritative authorization check; the Go
// resolver above is the defensive copy. Both are derived from the same role
// and permission tables here, so neither can drift on its own.
//
// The policies read three request-scoped settings the connection layer is
// expected to provide: app.principal_id, app.role and app.visibility_mode.

func sqlRoleArray(roles []Role) string {
	quoted := make([]string, len(roles))
	for i, r := range roles {
		quoted[i] = "'" + string(r) + "'"
	}
	return "ARRAY[" + strings.Join(quoted, ",") + "]"
}

func roleWeightCases() string {
	roles := AllRoles()
	sort.Slice(roles, func(i, j int) bool { return roles[i].Weight() < roles[j].Weight() })
	var b strings.Builder
	for _, r := range roles {
		fmt.Fprintf(&b, "\t\tWHEN '%s' THEN %d\n", r, r.Weight())
	}
	return b.String()
}

// PolicyStatements returns the SQL installing the policy enforcement
// boundary: helper functions mechanically translated from the permission
// tables, followed by row-level security policies per owned-resource table.
func (e *Evaluator) PolicyStatements() []string {
	viewAll := sqlRoleArray(e.rolesWith(PermViewAll))
	editOwn := sqlRoleArray(e.rolesWith(PermEditOwn))

	stmts := []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION crm_role_weight(r TEXT) RETURNS INTEGER AS $$
	SELECT CASE r
%s		ELSE 0
	END
$$ LANGUAGE sql IMMUTABLE`, roleWeightCases()),

		// SECURITY DEFINER: the membership lookup must not itself be
		// filtered by the memberships policies, which call this function.
		`CREATE OR REPLACE FUNCTION crm_is_active_member(row_workspace UUID) RETURNS BOOLEAN AS $$
	SELECT EXISTS (
		SELECT 1 FROM memberships m
		WHERE m.workspace_id = row_workspace
		  AND m.user_id::text = current_setting('app.principal_id', true)
		  AND m.status = 'active'
	)
$$ LANGUAGE sql STABLE SECURITY DEFINER`,

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION crm_row_visible(row_workspace UUID, row_creator UUID, row_owner UUID) RETURNS BOOLEAN AS $$
	SELECT crm_is_active_member(row_workspace) AND (
		current_setting('app.role', true) = ANY(%s)
		OR current_setting('app.visibility_mode', true) = 'all'
		OR row_creator::text = current_setting('app.principal_id', true)
		OR COALESCE(row_owner::text, '') = current_setting('app.principal_id', true)
	)
$$ LANGUAGE sql STABLE`, viewAll),

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION crm_row_mutable(row_workspace UUID, row_creator UUID, row_owner UUID, full_roles TEXT[]) RETURNS BOOLEAN AS $$
	SELECT crm_is_active_member(row_workspace) AND (
		current_setting('app.role', true) = ANY(full_roles)
		OR (
			current_setting('app.role', true) = ANY(%s)
			AND (
				row_creator::text = current_setting('app.principal_id', true)
				OR COALESCE(row_owner::text, '') = current_setting('app.principal_id', true)
			)
		)
	)
$$ LANGUAGE sql STABLE`, editOwn),
	}

	stmts = append(stmts, e.resourcePolicies("contacts", PermViewContacts, PermCreateContact, PermEditContact, "")...)
	stmts = append(stmts, e.resourcePolicies("deals", PermViewDeals, PermCreateDeal, PermEditDeal, "")...)
	// Logging-kind activities are immutable even for senior roles; only
	// notes ever match the mutation policies.
	stmts = append(stmts, e.resourcePolicies("activities", PermViewActivities, PermCreateActivity, PermEditActivity, "kind = 'note'")...)
	stmts = append(stmts, e.membershipPolicies()...)
	return stmts
}

// resourcePolicies emits row-level security for one owned-resource table.
// extraMutation, when non-empty, further restricts update/delete rows.
func (e *Evaluator) resourcePolicies(table string, view, create, edit Permission, extraMutation string) []string {
	createRoles := sqlRoleArray(e.rolesWith(create))
	editRoles := sqlRoleArray(e.rolesWith(edit))
	mutable := fmt.Sprintf("crm_row_mutable(workspace_id, creator_id, owner_id, %s)", editRoles)
	if extraMutation != "" {
		mutable = mutable + " AND " + extraMutation
	}
	return []string{
		fmt.Sprintf(`ALTER TABLE %s ENABLE ROW LEVEL SECURITY`, table),
		fmt.Sprintf(`ALTER TABLE %s FORCE ROW LEVEL SECURITY`, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_select ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_select ON %s FOR SELECT USING (crm_row_visible(workspace_id, creator_id, owner_id))`, table, table),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_insert ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_insert ON %s FOR INSERT WITH CHECK (crm_is_active_member(workspace_id) AND current_setting('app.role', true) = ANY(%s))`, table, table, createRoles),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_update ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_update ON %s FOR UPDATE USING (%s)`, table, table, mutable),
		fmt.Sprintf(`DROP POLICY IF EXISTS %s_delete ON %s`, table, table),
		fmt.Sprintf(`CREATE POLICY %s_delete ON %s FOR DELETE USING (%s)`, table, table, mutable),
	}
}

// membershipPolicies guards membership rows: members see the roster when
// their role holds view_members (or it is their own row), new rows require
// strict seniority of the inviter over the granted role, and management
// requires strict role seniority over the target row. The insert policy
// carves out the workspace owner's own bootstrap row, which is created
// before any membership exists.
func (e *Evaluator) membershipPolicies() []string {
	viewMembers := sqlRoleArray(e.rolesWith(PermViewMembers))
	return []string{
		`ALTER TABLE memberships ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE memberships FORCE ROW LEVEL SECURITY`,
		`DROP POLICY IF EXISTS memberships_select ON memberships`,
		fmt.Sprintf(`CREATE POLICY memberships_select ON memberships FOR SELECT USING (
		crm_is_active_member(workspace_id) AND (
			current_setting('app.role', true) = ANY(%s)
			OR user_id::text = current_setting('app.principal_id', true)
		)
	)`, viewMembers),
		`DROP POLICY IF EXISTS memberships_insert ON memberships`,
		`CREATE POLICY memberships_insert ON memberships FOR INSERT WITH CHECK (
		(
			crm_is_active_member(workspace_id)
			AND crm_role_weight(current_setting('app.role', true)) > crm_role_weight(role)
		)
		OR (
			role = 'owner'
			AND EXISTS (
				SELECT 1 FROM workspaces w
				WHERE w.id = workspace_id AND w.owner_id = user_id
			)
		)
	)`,
		`DROP POLICY IF EXISTS memberships_manage ON memberships`,
		`CREATE POLICY memberships_manage ON memberships FOR UPDATE USING (
		crm_is_active_member(workspace_id)
		AND crm_role_weight(current_setting('app.role', true)) > crm_role_weight(role)
	)`,
		`DROP POLICY IF EXISTS memberships_remove ON memberships`,
		`CREATE POLICY memberships_remove ON memberships FOR DELETE USING (
		crm_is_active_member(workspace_id)
		AND crm_role_weight(current_setting('app.role', true)) > crm_role_weight(role)
	)`,
	}
}
