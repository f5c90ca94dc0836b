package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"talos/internal/storage"
	"talos/internal/utils"
)

// Scheduler rescans every watchlist target once a day and records the result
// in the scan history, so analysts can diff how a URL's posture changes over
// time. Retries belong inside the individual stage clients, not here.
type Scheduler struct {
	Cron     *cron.Cron
	Storage  *storage.Storage
	Analyzer *Analyzer
}

func NewScheduler(s *storage.Storage, a *Analyzer) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(),
		Storage:  s,
		Analyzer: a,
	}
}

func (s *Scheduler) Start() {
	_, _ = s.Cron.AddFunc("0 2 * * *", s.RunWatchlistJob)
	s.Cron.Start()
	utils.Log.Info("scheduler started")
}

func (s *Scheduler) Stop() {
	s.Cron.Stop()
}

func (s *Scheduler) RunWatchlistJob() {
	targets, err := s.Storage.GetWatchlist(context.Background())
	if err != nil {
		utils.Log.Error("scheduler could not read watchlist", utils.Field("error", err.Error()))
		return
	}
	for _, target := range targets {
		go s.Recheck(target)
	}
}

func (s *Scheduler) Recheck(target string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	utils.Log.Info("running scheduled analysis", utils.Field("target", target))
	res, err := s.Analyzer.Analyze(ctx, target)
	if err != nil {
		utils.Log.Warn("scheduled analysis rejected",
			utils.Field("target", target),
			utils.Field("error", err.Error()))
		return
	}

	if err := s.Storage.AddScanHistory(ctx, res.Normalized.URL, res); err != nil {
		utils.Log.Warn("could not store scan history",
			utils.Field("target", target),
			utils.Field("error", err.Error()))
	}
	utils.Log.Info("scheduled analysis finished",
		utils.Field("target", target),
		utils.Field("verdict", string(res.Final.Verdict)))
}
