// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package index

import "github.com/permledger/ledgerd/metrics"

var metricFlushFailureCount = metrics.LazyLoadCounter("index_flush_failure_count")
