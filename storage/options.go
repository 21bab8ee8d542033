// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/permledger/ledgerd/lvldb"
	"github.com/permledger/ledgerd/wsv"
)

// Options of the storage.
type Options struct {
	BlockLog lvldb.Options `yaml:"block-log"`
	// BlockCacheSize is the number of decoded blocks kept in memory.
	BlockCacheSize int         `yaml:"block-cache-size"`
	WSV            wsv.Options `yaml:"wsv"`
	// ValidateOnApply enables permission and signature checks when applying blocks.
	ValidateOnApply bool `yaml:"validate-on-apply"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BlockLog: lvldb.Options{
			CacheSize:              128,
			OpenFilesCacheCapacity: 64,
		},
		BlockCacheSize: 256,
		WSV:            wsv.DefaultOptions(),
	}
}

// LoadOptions reads yaml encoded options from path. Absent fields keep their default.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrap(err, "read options")
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrapf(err, "parse options %v", path)
	}
	return opts, nil
}
