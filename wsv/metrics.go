// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

import "github.com/permledger/ledgerd/metrics"

var (
	metricSessionCount = metrics.LazyLoadCounter("wsv_session_count")
	metricQueryCount   = metrics.LazyLoadCounterVec("wsv_query_count", []string{"query", "result"})
	metricCacheHitMiss = metrics.LazyLoadGaugeVec("wsv_cache_hit_miss_count", []string{"event"})

	metricStmtCacheHitMiss = metrics.LazyLoadGaugeVec("wsv_stmt_cache_hit_miss_count", []string{"event"})
)
