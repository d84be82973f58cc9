package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-signal/internal/datasource DataSource,BarReader
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-signal/internal/strategy Strategy
//go:generate mockgen -destination=./mock_sink.go -package=mocks github.com/rxtech-lab/argo-signal/internal/event Sink
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-signal/pkg/marketdata/provider Provider
