package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := SignToken("secret", Claims{StaffID: 7, Role: RoleManager})
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.StaffID)
	assert.Equal(t, RoleManager, claims.Role)

	_, err = ParseToken("wrong-secret", token)
	assert.Error(t, err)
}

func TestClaimsAuthorizer(t *testing.T) {
	authz := ClaimsAuthorizer{}
	ctx := WithActor(context.Background(), Claims{StaffID: 7, Role: RoleManager})

	assert.NoError(t, authz.AssertRole(ctx, 7, Elevated...))

	// Wrong actor id, even with a privileged claim present.
	err := authz.AssertRole(ctx, 8, Elevated...)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))

	// Right actor, insufficient role.
	ctx = WithActor(context.Background(), Claims{StaffID: 7, Role: RoleWaiter})
	err = authz.AssertRole(ctx, 7, Elevated...)
	assert.True(t, domain.IsCode(err, domain.CodePermissionDenied))
}

func TestClaimsAuthorizerSeesApprover(t *testing.T) {
	authz := ClaimsAuthorizer{}
	ctx := WithActor(context.Background(), Claims{StaffID: 20, Role: RoleCashier})
	ctx = WithApprover(ctx, Claims{StaffID: 10, Role: RoleAdmin})

	assert.NoError(t, authz.AssertRole(ctx, 10, Elevated...))
	assert.Error(t, authz.AssertRole(ctx, 20, Elevated...))
}

func TestStaticAuthorizer(t *testing.T) {
	authz := StaticAuthorizer{Roles: map[int64]string{1: RoleAdmin, 2: RoleWaiter}}
	assert.NoError(t, authz.AssertRole(context.Background(), 1, Elevated...))
	assert.Error(t, authz.AssertRole(context.Background(), 2, Elevated...))
	assert.Error(t, authz.AssertRole(context.Background(), 3, Elevated...))
}
