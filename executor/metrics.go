// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import "github.com/permledger/ledgerd/metrics"

var (
	metricCommandCount    = metrics.LazyLoadCounterVec("executor_command_count", []string{"command", "result"})
	metricTxRejectedCount = metrics.LazyLoadCounterVec("executor_tx_rejected_count", []string{"code"})
)
