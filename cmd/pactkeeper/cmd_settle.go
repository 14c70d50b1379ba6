package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/scheduler"
	"github.com/tbourn/pactkeeper/internal/services"
)

var settleTimeout time.Duration

// settleCmd runs one settlement job immediately. Jobs are idempotent per
// period, so running one that already ran today settles nobody twice.
var settleCmd = &cobra.Command{
	Use:   "settle <job>",
	Short: "Run a settlement job now",
	Long: `Runs one settlement job outside its cron schedule and prints its report
as JSON. Jobs:

  weekly-rollover    settle last week's frequency quotas and open a new week
  auto-keep          record yesterday as kept for silent auto-keep contracts
  morning-briefing   generate and push today's morning briefings
  evening-briefing   generate and push today's evening briefings`,
	Example: `  pactkeeper settle auto-keep
  pactkeeper settle weekly-rollover --timeout 2m`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{services.JobWeeklyRollover, services.JobAutoKeep, services.JobMorningBriefing, services.JobEveningBriefing},
	RunE:      runSettle,
}

func init() {
	settleCmd.Flags().DurationVar(&settleTimeout, "timeout", 5*time.Minute, "Abort the job after this long (0 disables)")
}

func runSettle(cmd *cobra.Command, args []string) error {
	ctx, cancel := withTimeout(cmd.Context(), settleTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return settle(ctx, cmd, a.cfg, a.settlement, strings.TrimSpace(args[0]))
}

// settle runs job through the scheduler's wrapper so one-shot runs are timed
// and logged exactly like scheduled ones. ctx bounds the job.
func settle(ctx context.Context, cmd *cobra.Command, conf config.Config, jobs scheduler.Jobs, job string) error {
	sched, err := scheduler.New(conf.Scheduler, conf.Location(), jobs)
	if err != nil {
		return err
	}
	rep, err := sched.RunNow(ctx, job)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%s: %d of %d users failed", job, rep.Failed, rep.Users)
	}
	return nil
}
