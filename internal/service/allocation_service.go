package service

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamiq/internal/metrics"
	"teamiq/internal/model"
	"teamiq/internal/repository"
	"teamiq/pkg/apierror"
)

// Component weights of the final recommendation score.
const (
	weightSkillMatch    = 0.4
	weightWorkload      = 0.2
	weightGrowth        = 0.2
	weightCollaboration = 0.1
	weightAvailability  = 0.1
)

// collaboratorWindow bounds how far back shared assignments count as
// "recently worked together".
const collaboratorWindow = 30 * 24 * time.Hour

// taskSkillKeywords maps catalog skills to the phrases that imply them in a
// task's title or description. An ordered slice keeps inference output
// deterministic.
var taskSkillKeywords = []struct {
	skill string
	terms []string
}{
	{"Python", []string{"python", "django", "flask", "fastapi"}},
	{"JavaScript", []string{"javascript", "js", "node", "express"}},
	{"React", []string{"react", "jsx", "frontend"}},
	{"TypeScript", []string{"typescript", "ts"}},
	{"Go", []string{"golang", "goroutine"}},
	{"SQL", []string{"sql", "database", "query", "postgresql", "mysql"}},
	{"Docker", []string{"docker", "container", "deployment"}},
	{"AWS", []string{"aws", "cloud", "s3", "ec2"}},
	{"Testing", []string{"test", "testing", "unit test", "integration"}},
	{"API", []string{"api", "rest", "endpoint", "service"}},
	{"UI/UX", []string{"ui", "ux", "design", "interface"}},
}

// skillRequirement is one inferred requirement: a catalog skill and the
// level (1..5) the task appears to demand.
type skillRequirement struct {
	Name  string
	Level int
}

// inferTaskSkills derives skill requirements from free text. Each keyword
// hit raises the required level by one, clamped to [1,5].
func inferTaskSkills(title string, description string) []skillRequirement {
	text := strings.ToLower(title + " " + description)

	reqs := make([]skillRequirement, 0, 4)
	for _, group := range taskSkillKeywords {
		hits := 0
		for _, term := range group.terms {
			if strings.Contains(text, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		reqs = append(reqs, skillRequirement{Name: group.skill, Level: min(5, max(1, hits))})
	}
	return reqs
}

// skillMatchScore compares a member's levels (0..5 scale, keyed by lowercase
// skill name) against the requirements. Each requirement contributes fully
// when met and proportionally when not, weighted by how demanding it is.
func skillMatchScore(reqs []skillRequirement, levels map[string]float64) float64 {
	if len(reqs) == 0 {
		return 0.5
	}

	var weighted, totalWeight float64
	for _, req := range reqs {
		level := levels[strings.ToLower(req.Name)]
		match := 1.0
		if level < float64(req.Level) {
			match = max(0, level/float64(req.Level))
		}
		weighted += match * float64(req.Level)
		totalWeight += float64(req.Level)
	}
	return weighted / totalWeight
}

// growthScore rewards assignments that stretch a member: missing skills
// score highest, skills already above the requirement barely move.
func growthScore(reqs []skillRequirement, levels map[string]float64) float64 {
	if len(reqs) == 0 {
		return 0.5
	}

	var total float64
	for _, req := range reqs {
		level, ok := levels[strings.ToLower(req.Name)]
		switch {
		case !ok || level == 0:
			total += 0.8
		case level < float64(req.Level):
			total += min(0.6, (float64(req.Level)-level)/2)
		default:
			total += 0.1
		}
	}
	return total / float64(len(reqs))
}

func workloadScore(openTasks int, capacity int) float64 {
	if capacity <= 0 {
		capacity = 5
	}
	return max(0, 1-float64(openTasks)/float64(capacity))
}

func collaborationScore(sharedPeers int, projectHasPeers bool) float64 {
	if !projectHasPeers {
		return 0.5
	}
	return min(1, float64(sharedPeers)/3)
}

func overallScore(skillMatch float64, workload float64, growth float64, collaboration float64, availability float64) float64 {
	return weightSkillMatch*skillMatch +
		weightWorkload*workload +
		weightGrowth*growth +
		weightCollaboration*collaboration +
		weightAvailability*availability
}

// buildReason turns component scores into the one-line rationale stored with
// the assignment.
func buildReason(username string, skillMatch float64, workload float64, growth float64) string {
	parts := make([]string, 0, 3)

	switch {
	case skillMatch > 0.8:
		parts = append(parts, "Strong skill match")
	case skillMatch > 0.6:
		parts = append(parts, "Good skill match")
	default:
		parts = append(parts, "Skill development opportunity")
	}

	switch {
	case workload > 0.7:
		parts = append(parts, "low current workload")
	case workload > 0.4:
		parts = append(parts, "moderate workload")
	default:
		parts = append(parts, "high workload")
	}

	if growth > 0.6 {
		parts = append(parts, "excellent growth opportunity")
	} else if growth > 0.3 {
		parts = append(parts, "some growth potential")
	}

	return username + ": " + strings.Join(parts, ", ")
}

type AllocationService struct {
	tasks         *repository.TaskRepository
	projects      *repository.ProjectRepository
	users         *repository.UserRepository
	skills        *repository.SkillRepository
	notifications *NotificationService
	capacity      int
}

func NewAllocationService(
	tasks *repository.TaskRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	skills *repository.SkillRepository,
	notifications *NotificationService,
	capacity int,
) *AllocationService {
	if capacity <= 0 {
		capacity = 5
	}

	return &AllocationService{
		tasks:         tasks,
		projects:      projects,
		users:         users,
		skills:        skills,
		notifications: notifications,
		capacity:      capacity,
	}
}

// Recommend scores every active engineer-grade user for a task and returns
// the ranked list without assigning anyone.
func (s *AllocationService) Recommend(ctx context.Context, taskID string) (model.AllocationResult, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return model.AllocationResult{}, err
	}
	if task.Status == model.TaskStatusDone {
		return model.AllocationResult{}, apierror.New("VALIDATION_ERROR", "cannot allocate a completed task", task.Status, http.StatusBadRequest)
	}

	candidates, err := s.scoreCandidates(ctx, task)
	if err != nil {
		return model.AllocationResult{}, err
	}
	if len(candidates) == 0 {
		return model.AllocationResult{}, model.ErrNoEligibleAssignee
	}

	metrics.AllocationRuns.Inc()
	return model.AllocationResult{Task: task, Candidates: candidates}, nil
}

// Allocate runs the recommendation engine and assigns the best candidate,
// recording the score and rationale alongside the assignment.
func (s *AllocationService) Allocate(ctx context.Context, taskID string, assignedBy string) (model.AllocationResult, error) {
	result, err := s.Recommend(ctx, taskID)
	if err != nil {
		return model.AllocationResult{}, err
	}

	best := result.Candidates[0]
	assignment := model.TaskAssignment{
		ID:                  uuid.NewString(),
		TaskID:              result.Task.ID,
		UserID:              best.User.ID,
		AssignedBy:          assignedBy,
		RecommendationScore: best.Score,
		Reason:              best.Reason,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.tasks.CreateAssignment(ctx, assignment); err != nil {
		return model.AllocationResult{}, err
	}

	s.notifications.Push(ctx, best.User.ID, model.NotificationTaskAssigned,
		"You were assigned: "+result.Task.Title,
		fmt.Sprintf("Recommended with score %.2f. %s", best.Score, best.Reason),
		result.Task.ID)

	result.Assigned = &assignment
	return result, nil
}

func (s *AllocationService) scoreCandidates(ctx context.Context, task model.Task) ([]model.AllocationCandidate, error) {
	pool, err := s.users.ListActiveByRoles(ctx, []string{model.RoleIntern, model.RoleEngineer, model.RoleTeamLead})
	if err != nil {
		return nil, err
	}

	reqs := inferTaskSkills(task.Title, task.Description)
	reqNames := make([]string, 0, len(reqs))
	for _, req := range reqs {
		reqNames = append(reqNames, strings.ToLower(req.Name))
	}

	memberIDs, err := s.projects.MemberIDs(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	since := time.Now().UTC().Add(-collaboratorWindow)
	candidates := make([]model.AllocationCandidate, 0, len(pool))
	for _, user := range pool {
		c, err := s.scoreOne(ctx, user, reqs, reqNames, members, since)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].OpenTasks != candidates[j].OpenTasks {
			return candidates[i].OpenTasks < candidates[j].OpenTasks
		}
		return candidates[i].User.Username < candidates[j].User.Username
	})
	return candidates, nil
}

func (s *AllocationService) scoreOne(
	ctx context.Context,
	user model.AuthUser,
	reqs []skillRequirement,
	reqNames []string,
	projectMembers map[string]struct{},
	since time.Time,
) (model.AllocationCandidate, error) {
	proficiencies, err := s.skills.ProficienciesByNames(ctx, user.ID, reqNames)
	if err != nil {
		return model.AllocationCandidate{}, err
	}
	// Proficiency is stored on a 0..10 scale; requirements live on 0..5.
	levels := make(map[string]float64, len(proficiencies))
	for name, prof := range proficiencies {
		levels[name] = prof / 2
	}

	openTasks, err := s.tasks.CountOpenAssignments(ctx, user.ID)
	if err != nil {
		return model.AllocationCandidate{}, err
	}

	hasUrgent, err := s.tasks.HasUrgentOpenTask(ctx, user.ID)
	if err != nil {
		return model.AllocationCandidate{}, err
	}

	collaborators, err := s.tasks.RecentCollaborators(ctx, user.ID, since)
	if err != nil {
		return model.AllocationCandidate{}, err
	}
	shared := 0
	for _, id := range collaborators {
		if _, ok := projectMembers[id]; ok {
			shared++
		}
	}
	_, selfOnProject := projectMembers[user.ID]
	hasPeers := len(projectMembers) > 1 || (len(projectMembers) == 1 && !selfOnProject)

	skillMatch := skillMatchScore(reqs, levels)
	workload := workloadScore(openTasks, s.capacity)
	growth := growthScore(reqs, levels)
	collaboration := collaborationScore(shared, hasPeers)
	availability := 1.0
	if hasUrgent {
		availability = 0.5
	}

	return model.AllocationCandidate{
		User:          user,
		Score:         overallScore(skillMatch, workload, growth, collaboration, availability),
		SkillMatch:    skillMatch,
		Workload:      workload,
		Growth:        growth,
		Collaboration: collaboration,
		Availability:  availability,
		OpenTasks:     openTasks,
		Reason:        buildReason(user.Username, skillMatch, workload, growth),
	}, nil
}
