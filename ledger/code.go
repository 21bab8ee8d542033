// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "strconv"

// ErrorCode classifies a rejected command, transaction or query independently of
// the storage backend.
type ErrorCode uint8

const (
	AccountNotFound ErrorCode = iota + 1
	DomainNotFound
	RoleNotFound
	AssetNotFound
	PeerNotFound
	SignatoryNotFound
	AccountAssetNotFound
	AccountDetailNotFound
	AlreadyExists
	NoPermission
	NoCreatorAccount
	DataIntegrity
	AmountOverflow
	NotEnoughBalance
	InvalidAmount
	QuorumViolation
	ValueMismatch
	BadPaginationMeta
	SignatureQuorumNotMet
)

var codeNames = [...]string{
	AccountNotFound:       "AccountNotFound",
	DomainNotFound:        "DomainNotFound",
	RoleNotFound:          "RoleNotFound",
	AssetNotFound:         "AssetNotFound",
	PeerNotFound:          "PeerNotFound",
	SignatoryNotFound:     "SignatoryNotFound",
	AccountAssetNotFound:  "AccountAssetNotFound",
	AccountDetailNotFound: "AccountDetailNotFound",
	AlreadyExists:         "AlreadyExists",
	NoPermission:          "PermissionDenied",
	NoCreatorAccount:      "NoCreatorAccount",
	DataIntegrity:         "DataIntegrityError",
	AmountOverflow:        "AmountOverflow",
	NotEnoughBalance:      "NotEnoughBalance",
	InvalidAmount:         "InvalidAmount",
	QuorumViolation:       "QuorumViolation",
	ValueMismatch:         "ValueMismatch",
	BadPaginationMeta:     "BadPaginationMeta",
	SignatureQuorumNotMet: "SignatureQuorumNotMet",
}

func (c ErrorCode) String() string {
	if int(c) < len(codeNames) && codeNames[c] != "" {
		return codeNames[c]
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// IsNotFound reports whether the code denotes a missing entity.
func (c ErrorCode) IsNotFound() bool {
	return c >= AccountNotFound && c <= AccountDetailNotFound
}
