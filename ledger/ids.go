// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "strings"

// Separators used by composite identifiers.
const (
	AccountSeparator = "@"
	AssetSeparator   = "#"
)

// GenesisWriter is the writer recorded for account details set without a creator.
const GenesisWriter = "genesis"

// AccountID builds "name@domain".
func AccountID(name, domain string) string {
	return name + AccountSeparator + domain
}

// AssetID builds "name#domain".
func AssetID(name, domain string) string {
	return name + AssetSeparator + domain
}

// SplitAccountID splits an account id into its name and domain.
func SplitAccountID(id string) (name, domain string, ok bool) {
	return split(id, AccountSeparator)
}

// SplitAssetID splits an asset id into its name and domain.
func SplitAssetID(id string) (name, domain string, ok bool) {
	return split(id, AssetSeparator)
}

// AccountDomain returns the domain part of an account id, or empty string if malformed.
func AccountDomain(id string) string {
	_, d, _ := SplitAccountID(id)
	return d
}

// AssetDomain returns the domain part of an asset id, or empty string if malformed.
func AssetDomain(id string) string {
	_, d, _ := SplitAssetID(id)
	return d
}

// SameDomain reports whether two account ids belong to the same, non-empty domain.
func SameDomain(a, b string) bool {
	d := AccountDomain(a)
	return d != "" && d == AccountDomain(b)
}

func split(id, sep string) (string, string, bool) {
	i := strings.LastIndex(id, sep)
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}
