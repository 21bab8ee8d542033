// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package perm_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permledger/ledgerd/perm"
)

func TestRoleSetBitstring(t *testing.T) {
	s := perm.NewRoleSet(perm.AppendRole, perm.Transfer, perm.Root)
	str := s.String()
	assert.Len(t, str, perm.RoleCount)
	assert.Equal(t, byte('1'), str[0])
	assert.Equal(t, byte('1'), str[perm.Transfer])
	assert.Equal(t, byte('0'), str[perm.Receive])

	parsed, err := perm.ParseRoleSet(str)
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	short, err := perm.ParseRoleSet("011")
	require.NoError(t, err)
	assert.Equal(t, perm.NewRoleSet(perm.CreateRole, perm.DetachRole), short)

	_, err = perm.ParseRoleSet("012")
	assert.Error(t, err)
	_, err = perm.ParseRoleSet(str + "0")
	assert.Error(t, err)
}

func TestRoleSetAllows(t *testing.T) {
	s := perm.NewRoleSet(perm.GetMyAccount)
	assert.True(t, s.Allows(perm.GetMyAccount))
	assert.False(t, s.Allows(perm.GetAllAccounts))

	root := perm.NewRoleSet(perm.Root)
	assert.True(t, root.Allows(perm.GetAllAccounts))
	assert.False(t, root.Has(perm.GetAllAccounts))
	assert.True(t, root.AllowsAll(perm.AllRoles()))

	assert.True(t, perm.NewRoleSet(perm.Transfer, perm.Receive).AllowsAll(perm.NewRoleSet(perm.Transfer)))
	assert.False(t, perm.NewRoleSet(perm.Transfer).AllowsAll(perm.NewRoleSet(perm.Transfer, perm.Receive)))
}

func TestUnionIsOrderIndependent(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		sets := make([]perm.RoleSet, 1+r.IntN(6))
		var want perm.RoleSet
		for j := range sets {
			for k := 0; k < perm.RoleCount; k++ {
				if r.IntN(4) == 0 {
					sets[j] = sets[j].With(perm.Role(k))
				}
			}
			for _, role := range sets[j].Roles() {
				want = want.With(role)
			}
		}
		forward := perm.RoleSet(0).Union(sets...)
		r.Shuffle(len(sets), func(a, b int) { sets[a], sets[b] = sets[b], sets[a] })
		assert.Equal(t, want, forward)
		assert.Equal(t, forward, perm.RoleSet(0).Union(sets...))
	}
}

func TestGrantable(t *testing.T) {
	assert.Equal(t, perm.GrantTransferMyAssets, perm.TransferMyAssets.RequiredRole())
	assert.Equal(t, perm.GrantSetMyQuorum, perm.SetMyQuorum.RequiredRole())
	for i := 0; i < perm.GrantableCount; i++ {
		g := perm.Grantable(i)
		parsed, ok := perm.ParseGrantable(g.String())
		assert.True(t, ok)
		assert.Equal(t, g, parsed)
	}

	s := perm.GrantableSet(0).With(perm.SetMyQuorum).With(perm.AddMySignatory)
	assert.True(t, s.Has(perm.SetMyQuorum))
	assert.False(t, s.Without(perm.SetMyQuorum).Has(perm.SetMyQuorum))

	parsed, err := perm.ParseGrantableSet(s.String())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)
	assert.False(t, perm.Grantable(200).Valid())
}

func TestParseRole(t *testing.T) {
	r, ok := perm.ParseRole("can_transfer")
	assert.True(t, ok)
	assert.Equal(t, perm.Transfer, r)
	_, ok = perm.ParseRole("nope")
	assert.False(t, ok)
}
