package contracts

import "context"

// HistorySource fetches OHLCV history (S0)
// ⭐ SSOT: 가격 데이터 수집 인터페이스
// Implementations return ErrNoData (never a nil series with nil error) when nothing is found.
type HistorySource interface {
	FetchHistory(ctx context.Context, ticker, period, interval string) (*Series, error)
}

// HistorySourceFunc adapts a function to HistorySource
type HistorySourceFunc func(ctx context.Context, ticker, period, interval string) (*Series, error)

// FetchHistory calls f
func (f HistorySourceFunc) FetchHistory(ctx context.Context, ticker, period, interval string) (*Series, error) {
	return f(ctx, ticker, period, interval)
}

// InfoSource resolves display metadata for a ticker
type InfoSource interface {
	Info(ctx context.Context, ticker string) (InstrumentInfo, error)
}

// Analyzer produces a Candidate for one ticker (S3)
// ⭐ SSOT: 단일 종목 분석 인터페이스
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (*Candidate, error)
}

// Ranker ranks candidates across a ticker list (S4)
// ⭐ SSOT: 랭킹 인터페이스
type Ranker interface {
	Rank(ctx context.Context, tickers []string, minProbability float64, limit int) ([]Candidate, error)
}
