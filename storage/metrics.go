// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import "github.com/permledger/ledgerd/metrics"

var (
	metricBlockApplyCount    = metrics.LazyLoadCounterVec("storage_block_apply_count", []string{"result"})
	metricBlockApplyDuration = metrics.LazyLoadHistogram("storage_block_apply_duration_ms", metrics.BucketDurationMS)
	metricCommitCount        = metrics.LazyLoadCounter("storage_commit_count")
)
