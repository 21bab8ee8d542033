// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocklog

import "github.com/permledger/ledgerd/metrics"

var (
	metricHeight       = metrics.LazyLoadGauge("block_log_height")
	metricCacheHitMiss = metrics.LazyLoadGaugeVec("block_log_cache_hit_miss_count", []string{"event"})
)
