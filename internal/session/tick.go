package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/julianstephens/calorix/internal/challenge"
	"github.com/julianstephens/calorix/internal/constants"
	"github.com/julianstephens/calorix/internal/models"
	"github.com/julianstephens/calorix/internal/profile"
	"github.com/julianstephens/calorix/internal/reconcile"
	"github.com/julianstephens/calorix/internal/reminder"
	"github.com/julianstephens/calorix/internal/scheduler"
	"github.com/julianstephens/calorix/internal/storage"
)

// TickReport summarises one reminder tick.
type TickReport struct {
	Sent       []reminder.Notification
	GoalAlerts []reminder.GoalAlert
	Completed  string
	Synced     []string
}

// Tick runs the once-a-minute checks: due reminders, goal alerts, challenge
// progress and integration staleness. Delivery failures are logged and the
// notification is retried on the next tick.
func (s *Session) Tick(ctx context.Context) (TickReport, error) {
	now := s.now()
	var report TickReport

	s.mu.Lock()
	if s.closed || s.profile == nil {
		s.mu.Unlock()
		return report, nil
	}
	p := *s.profile
	fasting := s.fasting
	s.mu.Unlock()

	logs := s.proj.Logs()

	dedup := map[string]string{}
	if err := s.getJSON(ctx, constants.EntryLastNotified, &dedup); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return report, fmt.Errorf("failed to load notification history: %w", err)
	}

	due := reminder.Evaluate(now, p, logs, fasting, dedup)
	if reminder.NeedsCoach(logs, now) {
		date := now.Format(constants.DateFormat)
		key := "coach_" + date
		if _, seen := dedup[key]; !seen && now.Format(constants.TimeFormat) >= coachTime {
			due = append(due, reminder.Notification{
				Key:   key,
				Kind:  reminder.KindReminder,
				Title: p.Coach.Name,
				Body:  s.coachMessage(ctx, date, p),
			})
		}
	}

	for _, n := range due {
		if err := s.notifier.Notify(ctx, n.Title, n.Body); err != nil {
			s.log.Warn("Failed to deliver notification", "key", n.Key, "error", err)
			continue
		}
		report.Sent = append(report.Sent, n)
	}
	if len(report.Sent) > 0 {
		if err := s.putJSON(ctx, constants.EntryLastNotified, reminder.Record(dedup, report.Sent, now)); err != nil {
			return report, err
		}
	}
	for _, n := range report.Sent {
		if n.Kind == reminder.KindFasting {
			s.markFastNotified(ctx)
		}
	}

	alerts, err := s.goalAlerts(ctx, now, p)
	if err != nil {
		return report, err
	}
	report.GoalAlerts = alerts

	next, completed := challenge.Refresh(p, logs, now)
	next, report.Synced = profile.RefreshIntegrations(next, now)
	if completed != nil {
		report.Completed = completed.Title
		if err := s.notifier.Notify(ctx, "Desafio concluído!", fmt.Sprintf("Você completou o desafio %s e ganhou uma medalha.", completed.Title)); err != nil {
			s.log.Warn("Failed to deliver notification", "challenge", completed.ID, "error", err)
		}
	}
	if !reflect.DeepEqual(next, p) {
		if _, err := s.UpdateProfile(ctx, func(current models.UserProfile) (models.UserProfile, error) {
			current.ChallengeProgress = next.ChallengeProgress
			current.CompletedChallenges = next.CompletedChallenges
			current.Integrations = next.Integrations
			return current, nil
		}); err != nil {
			return report, err
		}
	}
	return report, nil
}

// coachTime is when the coach prompt is sent on days that follow two empty ones.
const coachTime = "10:00"

// coachMessage asks the advisor for date's coach prompt once and reuses the
// text on later ticks until it is delivered.
func (s *Session) coachMessage(ctx context.Context, date string, p models.UserProfile) string {
	key := constants.EntryCoachMessagePrefix + date
	var msg string
	if err := s.getJSON(ctx, key, &msg); err == nil && msg != "" {
		return msg
	}
	msg = s.advisor.Motivation(ctx, p.Name, p.Coach)
	if err := s.putJSON(ctx, key, msg); err != nil {
		s.log.Warn("Failed to cache coach message", "error", err)
	}
	return msg
}

func (s *Session) markFastNotified(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fasting
	f.CompletionNotified = true
	if err := s.setFasting(ctx, f); err != nil {
		s.log.Warn("Failed to save fasting state", "error", err)
	}
}

// goalAlerts sends today's goal progress alerts that have not been sent yet.
func (s *Session) goalAlerts(ctx context.Context, now time.Time, p models.UserProfile) ([]reminder.GoalAlert, error) {
	date := now.Format(constants.DateFormat)
	key := constants.EntryNotifiedGoalPrefix + date

	var notified []string
	if err := s.getJSON(ctx, key, &notified); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load goal alerts: %w", err)
	}

	var sent []reminder.GoalAlert
	for _, a := range reminder.CheckGoals(s.proj.Log(date), p.Goals, notified) {
		if err := s.notifier.Notify(ctx, "Progresso da meta", a.Message); err != nil {
			s.log.Warn("Failed to deliver goal alert", "key", a.Key, "error", err)
			continue
		}
		sent = append(sent, a)
		notified = append(notified, a.Key)
	}
	if len(sent) == 0 {
		return nil, nil
	}
	return sent, s.putJSON(ctx, key, notified)
}

// Schedule registers the reminder tick and periodic sync on sched. Close
// stops sched.
func (s *Session) Schedule(sched *scheduler.Scheduler, syncEvery time.Duration) error {
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()

	if err := sched.Add("tick", constants.TickSpec, func(ctx context.Context) {
		if _, err := s.Tick(ctx); err != nil {
			s.log.Error("Reminder tick failed", "error", err)
		}
	}); err != nil {
		return err
	}
	return sched.Add("sync", "@every "+syncEvery.String(), func(ctx context.Context) {
		res, err := s.Sync(ctx)
		if errors.Is(err, reconcile.ErrCycleInProgress) {
			s.log.Debug("Skipping sync, another process is syncing")
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		if err != nil {
			s.log.Warn("Sync failed, actions stay queued", "error", err)
			return
		}
		if res.Actions > 0 {
			s.log.Info("Synced", "actions", res.Actions, "dates", len(res.Dates))
		}
	})
}
