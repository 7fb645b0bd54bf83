package main

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/controllers"
	"github.com/radhian/payout-disbursement/handler"
)

type CronWorkerConfig struct {
	Interval time.Duration
	Workers  int
}

func (cfg CronWorkerConfig) startReconcileExecutorWorker(h *handler.PayoutHandler, workerID int) {
	for {
		ctx := context.Background()
		result, err := h.ReconciliationExecution(ctx)
		if err != nil {
			log.Errorf("[Worker %d] error: %s", workerID, err.Error())
		} else if result.Scanned > 0 {
			log.Infof("[Worker %d] scanned:%d inquired:%d changed:%d errored:%d",
				workerID, result.Scanned, result.Inquired, result.Changed, result.Errored)
		}

		time.Sleep(cfg.Interval)
	}
}

func startCronWorker(h *handler.PayoutHandler, cfg CronWorkerConfig) {
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Infof("spawn [Worker %d]", workerID)
			cfg.startReconcileExecutorWorker(h, workerID)
		}(i + 1)
	}
	wg.Wait()
}

func main() {
	cfg := config.Load()
	cfg.SetupLogger()

	app := controllers.App{}
	if err := app.Initialize(cfg); err != nil {
		log.Fatal("This is the error: ", err)
	}
	defer app.Close()

	startCronWorker(app.Handler, CronWorkerConfig{
		Workers:  cfg.WorkerNumber,
		Interval: cfg.WorkerInterval,
	})
}
