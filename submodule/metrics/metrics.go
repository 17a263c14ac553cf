package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	Version, _   = tag.NewKey("version")
	Commit, _    = tag.NewKey("commit")
	APIMethod, _ = tag.NewKey("api_method")
	MsgMethod, _ = tag.NewKey("msg_method")
	ErrCode, _   = tag.NewKey("err_code")
	TxKind, _    = tag.NewKey("tx_kind")
	Contract, _  = tag.NewKey("contract_method")
)

var (
	// common
	WalletInfo         = stats.Int64("info", "Wallet info", stats.UnitDimensionless)
	APIRequestDuration = stats.Float64("api/request_duration_ms", "Duration of API requests", stats.UnitMilliseconds)

	// message
	TxMessageReceived = stats.Int64("message/received", "Counter for total received messages", stats.UnitDimensionless)
	TxMessageSuccess  = stats.Int64("message/success", "Counter for message validation successes", stats.UnitDimensionless)
	TxMessageFailure  = stats.Int64("message/failure", "Counter for message validation failures", stats.UnitDimensionless)
	TxMessageApply    = stats.Float64("message/apply_total_ms", "Time spent applying messages", stats.UnitMilliseconds)

	// wallet
	TxExecuted   = stats.Int64("wallet/tx_executed", "Counter for transactions that reached quorum", stats.UnitDimensionless)
	TxPending    = stats.Int64("wallet/tx_pending", "Number of pending transactions", stats.UnitDimensionless)
	ContractCall = stats.Float64("contract/call_ms", "Duration of contract calls", stats.UnitMilliseconds)
)

var (
	InfoView = &view.View{
		Name:        "info",
		Description: "betawallet information",
		Measure:     WalletInfo,
		Aggregation: view.LastValue(),
		TagKeys:     []tag.Key{Version, Commit},
	}
	APIRequestDurationView = &view.View{
		Measure:     APIRequestDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{APIMethod},
	}

	TxMessageReceivedView = &view.View{
		Measure:     TxMessageReceived,
		Aggregation: view.Count(),
	}
	TxMessageSuccessView = &view.View{
		Measure:     TxMessageSuccess,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MsgMethod},
	}
	TxMessageFailureView = &view.View{
		Measure:     TxMessageFailure,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MsgMethod, ErrCode},
	}
	TxMessageApplyView = &view.View{
		Measure:     TxMessageApply,
		Aggregation: defaultMillisecondsDistribution,
	}

	TxExecutedView = &view.View{
		Measure:     TxExecuted,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{TxKind},
	}
	TxPendingView = &view.View{
		Measure:     TxPending,
		Aggregation: view.LastValue(),
	}
	ContractCallView = &view.View{
		Measure:     ContractCall,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Contract},
	}
)

var DefaultViews = func() []*view.View {
	views := []*view.View{
		InfoView,
		APIRequestDurationView,

		TxMessageReceivedView,
		TxMessageSuccessView,
		TxMessageFailureView,
		TxMessageApplyView,

		TxExecutedView,
		TxPendingView,
		ContractCallView,
	}
	return views
}()

func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

func Timer(ctx context.Context, m *stats.Float64Measure) func() {
	start := time.Now()
	return func() {
		stats.Record(ctx, m.M(SinceInMilliseconds(start)))
	}
}
