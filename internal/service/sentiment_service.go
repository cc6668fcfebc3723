package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"teamiq/internal/model"
	"teamiq/internal/repository"
	"teamiq/pkg/apierror"
)

// Keyword lists drive the whole analyzer. Matching is case-insensitive
// substring containment, so "blocked" also fires on "unblocked"; at team
// scale the noise averages out and the lists stay trivially tunable.
var (
	blockerKeywords = []string{
		"blocked", "stuck", "can't", "unable", "issue", "problem",
		"error", "failed", "broken", "help", "struggling", "difficult",
		"impediment", "obstacle", "roadblock", "halt", "stop", "barrier",
	}

	positiveKeywords = []string{
		"great", "awesome", "excellent", "good", "happy", "thanks",
		"love", "amazing", "perfect", "solved", "success", "complete",
		"accomplished", "pleased", "satisfied", "excited",
	}

	negativeKeywords = []string{
		"frustrated", "angry", "disappointed", "sad", "worried",
		"concerned", "stressed", "overwhelmed", "tired", "annoyed",
		"upset", "confused", "lost", "behind", "delayed",
	}
)

const (
	toneUpper = 0.6
	toneLower = 0.4

	alertRiskThreshold = 0.6
)

// AnalyzeText scores one piece of text without touching any store. Scores
// start neutral at 0.5; whichever of the positive or negative keyword groups
// hits more often pulls the score its way by 0.1 per hit, capped at 0.4.
// Blocker keywords always subtract 0.05 per hit, capped at 0.2.
func AnalyzeText(content string) model.SentimentResult {
	lowered := strings.ToLower(content)

	matched := make([]string, 0, 4)
	count := func(keywords []string) int {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lowered, kw) {
				hits++
				matched = append(matched, kw)
			}
		}
		return hits
	}

	positives := count(positiveKeywords)
	negatives := count(negativeKeywords)
	blockers := count(blockerKeywords)

	score := 0.5
	switch {
	case positives > negatives:
		score += min(0.4, float64(positives)*0.1)
	case negatives > positives:
		score -= min(0.4, float64(negatives)*0.1)
	}
	if blockers > 0 {
		score -= min(0.2, float64(blockers)*0.05)
	}
	score = min(1, max(0, score))

	tone := "neutral"
	if score > toneUpper {
		tone = "positive"
	} else if score < toneLower {
		tone = "negative"
	}

	urgency := "low"
	switch {
	case blockers > 2:
		urgency = "high"
	case blockers > 0:
		urgency = "medium"
	}

	sort.Strings(matched)
	return model.SentimentResult{
		Score:       score,
		Tone:        tone,
		Urgency:     urgency,
		BlockerHits: blockers,
		Keywords:    matched,
	}
}

func toneForScore(score float64) string {
	switch {
	case score > toneUpper:
		return "positive"
	case score < toneLower:
		return "negative"
	default:
		return "neutral"
	}
}

// riskScore weighs low average sentiment against how often blockers come up.
func riskScore(averageScore float64, blockerHits int, messageCount int) float64 {
	blockerRate := 0.0
	if messageCount > 0 {
		blockerRate = float64(blockerHits) / float64(messageCount)
	}
	return (1-averageScore)*0.7 + blockerRate*0.3
}

type SentimentService struct {
	messages      *repository.MessageRepository
	users         *repository.UserRepository
	notifications *NotificationService
	window        time.Duration
	teamCache     *ttlcache.Cache[string, model.TeamSentiment]
}

func NewSentimentService(
	messages *repository.MessageRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
	window time.Duration,
	cacheTTL time.Duration,
) *SentimentService {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	teamCache := ttlcache.New(
		ttlcache.WithTTL[string, model.TeamSentiment](cacheTTL),
		ttlcache.WithDisableTouchOnHit[string, model.TeamSentiment](),
	)
	go teamCache.Start()

	return &SentimentService{
		messages:      messages,
		users:         users,
		notifications: notifications,
		window:        window,
		teamCache:     teamCache,
	}
}

// Ingest analyzes and stores one message for the author. A high-urgency
// message additionally pings everyone in an oversight role so blockers do
// not sit unseen until someone opens the dashboard.
func (s *SentimentService) Ingest(ctx context.Context, author model.AuthUser, req model.IngestMessageRequest) (model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return model.Message{}, apierror.New("VALIDATION_ERROR", "content is required", "", http.StatusBadRequest)
	}
	if !model.ValidPlatform(req.Platform) {
		return model.Message{}, apierror.New("VALIDATION_ERROR", "platform must be one of: slack, teams, github", req.Platform, http.StatusBadRequest)
	}

	result := AnalyzeText(content)
	msg := model.Message{
		ID:             uuid.NewString(),
		UserID:         author.ID,
		Platform:       req.Platform,
		Channel:        strings.TrimSpace(req.Channel),
		Content:        content,
		SentimentScore: result.Score,
		Tone:           result.Tone,
		Urgency:        result.Urgency,
		BlockerHits:    result.BlockerHits,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return model.Message{}, err
	}

	if result.Urgency == "high" {
		s.notifyOversight(ctx, author, msg)
	}

	return msg, nil
}

func (s *SentimentService) notifyOversight(ctx context.Context, author model.AuthUser, msg model.Message) {
	watchers, err := s.users.ListActiveByRoles(ctx, []string{model.RoleTeamLead, model.RoleManager, model.RoleHR})
	if err != nil {
		return
	}

	title := fmt.Sprintf("%s may be blocked", author.Username)
	body := fmt.Sprintf("A %s message mentioned %d blocker terms.", msg.Platform, msg.BlockerHits)
	for _, w := range watchers {
		if w.ID == author.ID {
			continue
		}
		s.notifications.Push(ctx, w.ID, model.NotificationSentimentAlert, title, body, author.ID)
	}
}

func (s *SentimentService) UserSummary(ctx context.Context, userID string) (model.SentimentSummary, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return model.SentimentSummary{}, err
	}

	end := time.Now().UTC()
	start := end.Add(-s.window)
	avg, count, blockers, err := s.messages.UserWindow(ctx, userID, start)
	if err != nil {
		return model.SentimentSummary{}, err
	}

	return model.SentimentSummary{
		UserID:       userID,
		AverageScore: avg,
		Tone:         toneForScore(avg),
		MessageCount: count,
		BlockerHits:  blockers,
		WindowStart:  start,
		WindowEnd:    end,
	}, nil
}

// TeamSummary aggregates a team's window plus its daily trend. Results are
// cached briefly: dashboards poll this and the aggregate barely moves
// between refreshes.
func (s *SentimentService) TeamSummary(ctx context.Context, teamID string) (model.TeamSentiment, error) {
	if item := s.teamCache.Get(teamID); item != nil {
		return item.Value(), nil
	}

	end := time.Now().UTC()
	start := end.Add(-s.window)

	avg, count, blockers, err := s.messages.TeamWindow(ctx, teamID, start)
	if err != nil {
		return model.TeamSentiment{}, err
	}
	trend, err := s.messages.TeamTrend(ctx, teamID, start)
	if err != nil {
		return model.TeamSentiment{}, err
	}

	sentiment := model.TeamSentiment{
		Summary: model.SentimentSummary{
			TeamID:       teamID,
			AverageScore: avg,
			Tone:         toneForScore(avg),
			MessageCount: count,
			BlockerHits:  blockers,
			WindowStart:  start,
			WindowEnd:    end,
		},
		Trend: trend,
	}

	s.teamCache.Set(teamID, sentiment, ttlcache.DefaultTTL)
	return sentiment, nil
}

// Alerts lists users whose recent messages read as risky, highest risk
// first. Deactivated authors are skipped.
func (s *SentimentService) Alerts(ctx context.Context) ([]model.SentimentAlert, error) {
	since := time.Now().UTC().Add(-s.window)
	candidates, err := s.messages.AlertCandidates(ctx, since)
	if err != nil {
		return nil, err
	}

	alerts := make([]model.SentimentAlert, 0)
	for _, c := range candidates {
		risk := riskScore(c.AverageScore, c.BlockerHits, c.MessageCount)
		if risk < alertRiskThreshold {
			continue
		}

		user, err := s.users.FindByID(ctx, c.UserID)
		if err != nil || !user.IsActive {
			continue
		}

		alerts = append(alerts, model.SentimentAlert{
			User:         user.AuthUser(),
			AverageScore: c.AverageScore,
			BlockerHits:  c.BlockerHits,
			MessageCount: c.MessageCount,
			Reason: fmt.Sprintf("risk %.2f: average sentiment %.2f with %d blocker mentions across %d messages",
				risk, c.AverageScore, c.BlockerHits, c.MessageCount),
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		ri := riskScore(alerts[i].AverageScore, alerts[i].BlockerHits, alerts[i].MessageCount)
		rj := riskScore(alerts[j].AverageScore, alerts[j].BlockerHits, alerts[j].MessageCount)
		return ri > rj
	})
	return alerts, nil
}
