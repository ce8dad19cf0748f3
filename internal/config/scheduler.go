package config

import (
    "time"
)

// SchedulerConfig controls the periodic promotion task.  Enabled gates the
// tick body only: the timer keeps firing either way, so flipping the
// variable and restarting is enough to resume admissions without changing
// the process topology.  InitialDelay is the warm-up pause before the first
// tick, Interval the fixed delay between the end of one tick and the start
// of the next, and MaxAllowUsers the per-queue promotion ceiling per tick.
type SchedulerConfig struct {
    Enabled       bool
    InitialDelay  time.Duration
    Interval      time.Duration
    MaxAllowUsers int64
}

// LoadSchedulerConfig reads environment variables to build a SchedulerConfig.
// Defaults mirror the reference deployment: 5s warm-up, 10s cadence, at most
// 100 admissions per queue per tick.
func LoadSchedulerConfig() SchedulerConfig {
    def := SchedulerConfig{
        Enabled:       envBool("SCHEDULER_ENABLED", true),
        InitialDelay:  envDur("SCHEDULER_INITIAL_DELAY", 5*time.Second),
        Interval:      envDur("SCHEDULER_INTERVAL", 10*time.Second),
        MaxAllowUsers: int64(envInt("SCHEDULER_MAX_ALLOW", 100)),
    }
    if def.InitialDelay < 0 { def.InitialDelay = 0 }
    if def.Interval <= 0 { def.Interval = time.Second }
    if def.MaxAllowUsers < 1 { def.MaxAllowUsers = 1 }
    return def
}
