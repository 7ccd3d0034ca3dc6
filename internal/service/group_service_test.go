package service

import (
	"context"
	"testing"

	"codelearn/internal/models"
	"codelearn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupService_CreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)

	group, err := env.groups().CreateGroup(ctx, CreateGroupInput{
		CreatorID:     ada.ID,
		Name:          "  Graph Theory Club ",
		Description:   "dfs and friends",
		AllowedEmails: []string{" Ada@MIT.test ", ""},
	})
	require.NoError(t, err)

	assert.Equal(t, "Graph Theory Club", group.Name)
	assert.Equal(t, "graph-theory-club", group.Slug)
	assert.Len(t, group.InviteCode, 12)
	assert.Equal(t, []string{"ada@mit.test"}, group.AllowedEmails)
	require.Len(t, group.Members, 1)
	assert.Equal(t, ada.ID, group.Members[0].UserID)
	assert.Equal(t, models.GroupRoleAdmin, group.Members[0].Role)
	assert.Zero(t, group.GroupScore)
}

func TestGroupService_CreateGroup_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	svc := env.groups()

	_, err := svc.CreateGroup(ctx, CreateGroupInput{CreatorID: ada.ID, Name: "", Description: "x"})
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.CreateGroup(ctx, CreateGroupInput{CreatorID: ada.ID, Name: "x", Description: " "})
	assertAppError(t, err, models.CodeValidation)
	_, err = svc.CreateGroup(ctx, CreateGroupInput{CreatorID: ada.ID, Name: "x", Description: "x", AllowedEmails: []string{"not-an-email"}})
	assertAppError(t, err, models.CodeValidation)
}

func TestGroupService_InviteCodesDiffer(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code := newInviteCode()
		assert.Regexp(t, `^[0-9a-f]{12}$`, code)
		assert.False(t, seen[code])
		seen[code] = true
	}
}

func TestGroupService_JoinGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.groups()

	group, err := svc.JoinGroup(ctx, JoinGroupInput{GroupID: g.ID, UserID: bob.ID})
	require.NoError(t, err)
	require.Len(t, group.Members, 2)
	assert.Equal(t, bob.ID, group.Members[1].UserID)
	assert.Equal(t, models.GroupRoleMember, group.Members[1].Role)

	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: g.ID, UserID: bob.ID})
	assertAppError(t, err, models.CodeBusinessRule)

	reloaded, err := env.store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Members, 2, "a failed join leaves the roster unchanged")

	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: 999, UserID: bob.ID})
	assertAppError(t, err, models.CodeNotFound)
}

func TestGroupService_JoinGroup_AccessChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	eve := testutil.CreateUser(t, env.db, "eve", "MIT", "CSE", 0)
	svc := env.groups()

	private, err := svc.CreateGroup(ctx, CreateGroupInput{CreatorID: ada.ID, Name: "secret", Description: "x", IsPrivate: true})
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: private.ID, UserID: bob.ID, InviteCode: "wrong"})
	assertAppError(t, err, models.CodeBusinessRule)
	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: private.ID, UserID: bob.ID, InviteCode: private.InviteCode})
	require.NoError(t, err)

	allowList, err := svc.CreateGroup(ctx, CreateGroupInput{
		CreatorID:     ada.ID,
		Name:          "cohort",
		Description:   "x",
		AllowedEmails: []string{bob.Email},
	})
	require.NoError(t, err)

	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: allowList.ID, UserID: eve.ID})
	assertAppError(t, err, models.CodeBusinessRule)
	_, err = svc.JoinGroup(ctx, JoinGroupInput{GroupID: allowList.ID, UserID: bob.ID})
	require.NoError(t, err)
}

func TestGroupService_GetGroup_RedactsForOutsiders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	eve := testutil.CreateUser(t, env.db, "eve", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.groups()

	mine, err := svc.GetGroup(ctx, g.ID, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "0123456789ab", mine.InviteCode)

	theirs, err := svc.GetGroup(ctx, g.ID, eve.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs.InviteCode)

	public, err := svc.ListPublicGroups(ctx, eve.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Empty(t, public[0].InviteCode)
}

func TestGroupService_LeaveGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	eve := testutil.CreateUser(t, env.db, "eve", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada, bob)
	svc := env.groups()

	assertAppError(t, svc.LeaveGroup(ctx, g.ID, ada.ID), models.CodeBusinessRule)
	assertAppError(t, svc.LeaveGroup(ctx, g.ID, eve.ID), models.CodeBusinessRule)

	require.NoError(t, svc.LeaveGroup(ctx, g.ID, bob.ID))
	mine, err := svc.ListMyGroups(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	group, err := env.store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, group.Members, 1)
	assert.Equal(t, uint(2), group.Version)
}

func TestGroupService_DeleteGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada, bob)
	svc := env.groups()

	assertAppError(t, svc.DeleteGroup(ctx, g.ID, bob.ID), models.CodeUnauthorized)
	require.NoError(t, svc.DeleteGroup(ctx, g.ID, ada.ID))

	_, err := svc.GetGroup(ctx, g.ID, ada.ID)
	assertAppError(t, err, models.CodeNotFound)
	for _, u := range []*models.User{ada, bob} {
		ids, err := env.store.Users.GroupIDs(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	}
}

func TestGroupService_ListByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	svc := env.groups()

	open := testutil.CreateGroup(t, env.db, "open", ada)
	hidden := testutil.CreateGroup(t, env.db, "hidden", ada)
	require.NoError(t, env.db.Model(hidden).Updates(map[string]interface{}{"is_private": true, "invite_code": "SECRET"}).Error)
	testutil.CreateGroup(t, env.db, "bobs", bob)

	owned, err := svc.ListByOwner(ctx, ada.ID, ada.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, hidden.ID, owned[0].ID)
	assert.Equal(t, open.ID, owned[1].ID)
	assert.Equal(t, "SECRET", owned[0].InviteCode, "the owner sees their own codes")

	seen, err := svc.ListByOwner(ctx, ada.ID, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Empty(t, seen[0].InviteCode)

	_, err = svc.ListByOwner(ctx, 999, bob.ID, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
}
