package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamiq/internal/model"
	"teamiq/internal/repository"
)

const (
	defaultRetroPeriodDays = 14
	maxRetroPeriodDays     = 90

	retroTitleLimit   = 5
	retroBlockerTerms = 3
)

// trendLabel classifies a daily series by comparing the first third of the
// window against the last third. Fewer than three buckets is too little
// signal to call a direction.
func trendLabel(buckets []model.TrendBucket) string {
	if len(buckets) < 3 {
		return "stable"
	}

	n := len(buckets) / 3
	head := buckets[:n]
	tail := buckets[len(buckets)-n:]

	avg := func(bs []model.TrendBucket) float64 {
		var sum float64
		for _, b := range bs {
			sum += b.AverageScore
		}
		return sum / float64(len(bs))
	}

	switch {
	case avg(tail) > avg(head)+0.1:
		return "improving"
	case avg(tail) < avg(head)-0.1:
		return "declining"
	default:
		return "stable"
	}
}

type termCount struct {
	Term  string
	Count int
}

// topBlockerTerms tallies which blocker keywords recur across message
// contents. Like the analyzer, each keyword counts at most once per message.
func topBlockerTerms(contents []string, n int) []termCount {
	counts := make(map[string]int)
	for _, content := range contents {
		lowered := strings.ToLower(content)
		for _, kw := range blockerKeywords {
			if strings.Contains(lowered, kw) {
				counts[kw]++
			}
		}
	}

	terms := make([]termCount, 0, len(counts))
	for term, count := range counts {
		terms = append(terms, termCount{Term: term, Count: count})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})

	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

type retroInputs struct {
	DoneCount     int
	BlockedCount  int
	DoneTitles    []string
	BlockedTitles []string
	AvgSentiment  float64
	Trend         string
	TopBlockers   []termCount
}

// composeRetro turns the gathered aggregates into the three stored lists.
func composeRetro(in retroInputs) (highlights []string, lowlights []string, actions []string) {
	highlights = make([]string, 0, retroTitleLimit+2)
	for _, title := range in.DoneTitles {
		highlights = append(highlights, "Shipped: "+title)
	}
	if extra := in.DoneCount - len(in.DoneTitles); extra > 0 {
		highlights = append(highlights, fmt.Sprintf("...and %d more tasks completed", extra))
	}
	if in.Trend == "improving" {
		highlights = append(highlights, "Team sentiment improved over the period")
	}
	if len(highlights) == 0 {
		highlights = append(highlights, "No completed tasks this period")
	}

	lowlights = make([]string, 0, retroTitleLimit+2)
	for _, title := range in.BlockedTitles {
		lowlights = append(lowlights, "Blocked: "+title)
	}
	if in.Trend == "declining" {
		lowlights = append(lowlights, "Team sentiment declined over the period")
	}
	if in.AvgSentiment < 0.4 {
		lowlights = append(lowlights, fmt.Sprintf("Average sentiment was low (%.2f)", in.AvgSentiment))
	}

	actions = make([]string, 0, retroBlockerTerms+1)
	for _, tc := range in.TopBlockers {
		actions = append(actions, fmt.Sprintf("Address recurring blocker theme %q (%d mentions)", tc.Term, tc.Count))
	}
	if in.BlockedCount > 0 {
		actions = append(actions, fmt.Sprintf("Clear %d blocked tasks", in.BlockedCount))
	}
	if len(actions) == 0 {
		actions = append(actions, "Keep the current cadence")
	}

	return highlights, lowlights, actions
}

type RetroService struct {
	retros        *repository.RetroRepository
	teams         *repository.TeamRepository
	tasks         *repository.TaskRepository
	messages      *repository.MessageRepository
	notifications *NotificationService
}

func NewRetroService(
	retros *repository.RetroRepository,
	teams *repository.TeamRepository,
	tasks *repository.TaskRepository,
	messages *repository.MessageRepository,
	notifications *NotificationService,
) *RetroService {
	return &RetroService{
		retros:        retros,
		teams:         teams,
		tasks:         tasks,
		messages:      messages,
		notifications: notifications,
	}
}

// Generate aggregates a team's period into a stored retrospective and tells
// the team it is ready.
func (s *RetroService) Generate(ctx context.Context, generatedBy string, req model.GenerateRetroRequest) (model.Retrospective, error) {
	team, err := s.teams.FindByID(ctx, req.TeamID)
	if err != nil {
		return model.Retrospective{}, err
	}

	days := req.PeriodDays
	if days <= 0 {
		days = defaultRetroPeriodDays
	}
	if days > maxRetroPeriodDays {
		days = maxRetroPeriodDays
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	doneCount, err := s.tasks.CountByTeamPeriod(ctx, team.ID, model.TaskStatusDone, start, end)
	if err != nil {
		return model.Retrospective{}, err
	}
	blockedCount, err := s.tasks.CountByTeamPeriod(ctx, team.ID, model.TaskStatusBlocked, start, end)
	if err != nil {
		return model.Retrospective{}, err
	}
	doneTitles, err := s.tasks.TitlesByTeamPeriod(ctx, team.ID, model.TaskStatusDone, start, end, retroTitleLimit)
	if err != nil {
		return model.Retrospective{}, err
	}
	blockedTitles, err := s.tasks.TitlesByTeamPeriod(ctx, team.ID, model.TaskStatusBlocked, start, end, retroTitleLimit)
	if err != nil {
		return model.Retrospective{}, err
	}

	avg, _, _, err := s.messages.TeamWindow(ctx, team.ID, start)
	if err != nil {
		return model.Retrospective{}, err
	}
	trend, err := s.messages.TeamTrend(ctx, team.ID, start)
	if err != nil {
		return model.Retrospective{}, err
	}
	blockerContents, err := s.messages.BlockerContents(ctx, team.ID, start, end, 200)
	if err != nil {
		return model.Retrospective{}, err
	}

	highlights, lowlights, actions := composeRetro(retroInputs{
		DoneCount:     doneCount,
		BlockedCount:  blockedCount,
		DoneTitles:    doneTitles,
		BlockedTitles: blockedTitles,
		AvgSentiment:  avg,
		Trend:         trendLabel(trend),
		TopBlockers:   topBlockerTerms(blockerContents, retroBlockerTerms),
	})

	retro := model.Retrospective{
		ID:           uuid.NewString(),
		TeamID:       team.ID,
		PeriodStart:  start,
		PeriodEnd:    end,
		Highlights:   highlights,
		Lowlights:    lowlights,
		ActionItems:  actions,
		TasksDone:    doneCount,
		TasksBlocked: blockedCount,
		AvgSentiment: avg,
		GeneratedBy:  generatedBy,
		CreatedAt:    end,
	}
	if err := s.retros.Create(ctx, retro); err != nil {
		return model.Retrospective{}, err
	}

	s.notifyTeam(ctx, team, retro)
	return retro, nil
}

func (s *RetroService) notifyTeam(ctx context.Context, team model.Team, retro model.Retrospective) {
	memberIDs, err := s.teams.MemberIDs(ctx, team.ID)
	if err != nil {
		return
	}
	title := "Retrospective ready for " + team.Name
	for _, id := range memberIDs {
		s.notifications.Push(ctx, id, model.NotificationRetroReady, title, "", retro.ID)
	}
}

func (s *RetroService) Recent(ctx context.Context, teamID string, limit int) ([]model.Retrospective, error) {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.retros.ListRecent(ctx, teamID, limit)
}
