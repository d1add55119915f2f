package mocks

//go:generate mockgen -destination=./mock_risk_view.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/strategy RiskView
//go:generate mockgen -destination=./mock_fill_executor.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/engine FillExecutor
//go:generate mockgen -destination=./mock_trading_system_provider.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/trading/provider TradingSystemProvider
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-crossover/internal/notify Notifier
