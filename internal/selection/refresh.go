package selection

import (
	"context"

	"github.com/wonny/swing/backend/internal/contracts"
	"github.com/wonny/swing/backend/pkg/logger"
)

// RankingsMessage is the websocket message type for a refreshed ranking
const RankingsMessage = "rankings"

// RunRanker produces a ranking run
type RunRanker interface {
	RankRun(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error)
}

// RunSaver persists ranking runs
type RunSaver interface {
	SaveRun(ctx context.Context, run *contracts.RankingRun) error
}

// Broadcaster pushes a typed payload to subscribers
type Broadcaster interface {
	Broadcast(msgType string, v interface{}) error
}

// RankingUpdate is the payload broadcast after every refresh
type RankingUpdate struct {
	MinProbability float64            `json:"min_probability"`
	Limit          int                `json:"limit"`
	Count          int                `json:"count"`
	Data           []DisplayCandidate `json:"data"`
}

// Refresher runs a ranking and publishes the result: result cache first,
// then the run store and subscribers when configured. Publishing failures
// are logged and never fail the refresh.
type Refresher struct {
	ranker      RunRanker
	results     *ResultCache
	store       RunSaver
	broadcaster Broadcaster
	logger      *logger.Logger
}

// NewRefresher creates a refresher. results may be nil.
func NewRefresher(ranker RunRanker, results *ResultCache, log *logger.Logger) *Refresher {
	return &Refresher{ranker: ranker, results: results, logger: log}
}

// WithStore persists every run
func (r *Refresher) WithStore(store RunSaver) *Refresher {
	r.store = store
	return r
}

// WithBroadcaster pushes every run to subscribers
func (r *Refresher) WithBroadcaster(b Broadcaster) *Refresher {
	r.broadcaster = b
	return r
}

// Refresh ranks tickers and publishes the run
func (r *Refresher) Refresh(ctx context.Context, tickers []string, minProbability float64, limit int) (*contracts.RankingRun, error) {
	run, err := r.ranker.RankRun(ctx, tickers, minProbability, limit)
	if err != nil {
		return nil, err
	}

	if r.results != nil {
		r.results.PutRun(ctx, run)
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, run); err != nil {
			r.logger.WithError(err).Warn("Failed to persist ranking run")
		}
	}

	if r.broadcaster != nil {
		update := RankingUpdate{
			MinProbability: run.MinProbability,
			Limit:          run.Limit,
			Count:          len(run.Candidates),
			Data:           FormatCandidates(run.Candidates),
		}
		if err := r.broadcaster.Broadcast(RankingsMessage, update); err != nil {
			r.logger.WithError(err).Warn("Failed to broadcast ranking")
		}
	}

	return run, nil
}
