package app

import (
	"context"
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
	"github.com/sandeepkv93/daylog/internal/scheduler"
)

const (
	keySync     = "sync"
	keyRollover = "rollover"
)

func (r *Runtime) scheduleInitial() error {
	if err := r.Engine.After(r.Config.Sync.InitialDelay, scheduler.Trigger{Key: keySync, Kind: scheduler.KindSync}); err != nil {
		return err
	}
	return r.scheduleRollover(time.Now())
}

func (r *Runtime) scheduleRollover(now time.Time) error {
	return r.Engine.Schedule(scheduler.Trigger{
		Key:  keyRollover,
		Kind: scheduler.KindRollover,
		At:   scheduler.NextMidnight(now, time.Local),
	})
}

// consumeTriggers turns scheduler wakeups into sync requests and day
// rollovers, rescheduling each trigger after it fires.
func (r *Runtime) consumeTriggers(ctx context.Context) {
	log := r.component("scheduler")
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-r.Engine.C():
			if !ok {
				return
			}
			switch tr.Kind {
			case scheduler.KindSync:
				r.Session.Trigger()
				if err := r.Engine.After(r.Config.Sync.Interval, scheduler.Trigger{Key: keySync, Kind: scheduler.KindSync}); err != nil {
					log.WithError(err).Debug("stop periodic sync")
				}
			case scheduler.KindRollover:
				if err := r.rollover(ctx); err != nil {
					log.WithError(err).Error("day rollover")
				}
				if err := r.scheduleRollover(time.Now().Add(time.Minute)); err != nil {
					log.WithError(err).Debug("stop rollover")
				}
			}
		}
	}
}

// rollover opens the new day: yesterday's unfinished tasks move forward and
// recurring tasks are created.
func (r *Runtime) rollover(ctx context.Context) error {
	today := r.Daily.Today()
	yesterday, err := model.AddDays(today, -1)
	if err != nil {
		return err
	}
	if err := r.Daily.OpenDay(ctx, yesterday, today); err != nil {
		return err
	}
	r.publishUpdate([]string{today})
	return nil
}
