package identity_test

import (
	"testing"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/identity"
	"github.com/stretchr/testify/require"
)

func TestDigits(t *testing.T) {
	require.Equal(t, "593991234567", identity.Digits("+593 99-123-4567"))
	require.Equal(t, "", identity.Digits("n/a"))
}

func TestPhoneVariants(t *testing.T) {
	n := identity.Default

	tests := []struct {
		in   string
		want []string
	}{
		{"0991234567", []string{"0991234567", "593991234567"}},
		{"+593 991234567", []string{"0991234567", "593991234567"}},
		{"14155550100", []string{"14155550100"}},
		{"593", []string{"593"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, n.PhoneVariants(tt.in))
		})
	}
}

func TestLocalAndInternationalFormsMatch(t *testing.T) {
	n := identity.Default
	phones := []string{"0991234567", "0987654321", "02 234 5678"}

	for _, p := range phones {
		local := n.NormalizePhone(p)
		intl := n.NormalizePhone("+593" + identity.Digits(p)[1:])

		require.True(t, n.Match(local, intl), p)
		require.True(t, n.Match(intl, local), p)
	}

	require.True(t, n.Match(n.NormalizePhone("0991234567"), n.NormalizePhone("593991234567")))
	require.False(t, n.Match(n.NormalizePhone("0991234567"), n.NormalizePhone("0991234568")))
}

func TestMatchAccounts(t *testing.T) {
	n := identity.Default

	a := n.NormalizeAccount("acc_1", "+593991234567")
	require.True(t, n.Match(a, n.NormalizeAccount("acc_1", "")))
	require.True(t, n.Match(a, n.NormalizePhone("0991234567")), "account key supersedes phone key")
	require.False(t, n.Match(a, n.NormalizeAccount("acc_2", "0991234567")), "distinct accounts never match")
	require.False(t, n.Match(n.NormalizeAccount("acc_1", ""), n.NormalizePhone("0991234567")))
}

func TestResolve(t *testing.T) {
	key, err := identity.Resolve(domain.ActingIdentity{AccountID: "acc_1", Phone: "+593 99 123 4567"})
	require.NoError(t, err)
	require.Equal(t, domain.IdentityKey{Account: "acc_1", Phone: "593991234567"}, key)
	require.Equal(t, "acc_1", key.Canonical())

	key, err = identity.Resolve(domain.ActingIdentity{Phone: "0991234567"})
	require.NoError(t, err)
	require.Equal(t, "0991234567", key.Canonical())

	_, err = identity.Resolve(domain.ActingIdentity{DisplayName: "anon"})
	require.ErrorIs(t, err, domain.ErrIdentityRequired)
}

func TestVariantsIncludeAccount(t *testing.T) {
	got := identity.Variants(domain.IdentityKey{Account: "acc_1", Phone: "0991234567"})
	require.Equal(t, []string{"0991234567", "593991234567", "acc_1"}, got)
}

func TestCustomPlan(t *testing.T) {
	au := identity.Normalizer{CountryCode: "61", TrunkPrefix: "0"}
	require.True(t, au.Match(au.NormalizePhone("0412 345 678"), au.NormalizePhone("+61 412 345 678")))
}
