package assignment

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sirdesai22/hackathon-tasks/internal/models"
)

// Allocation is one pair produced by a strategy.
type Allocation struct {
	Participant models.User
	Task        models.Task
	// MatchScore is set by the skill-matched strategy only.
	MatchScore *float64
}

// QuotaFunc returns how many more tasks a participant may receive.
type QuotaFunc func(participantID uuid.UUID) int

// Strategy maps eligible participants and tasks to new pairs.
//
// Implementations must not return a pair present in existing, and must add
// every pair they return to existing so later picks in the same batch see it.
type Strategy interface {
	Method() models.AssignmentMethod
	Allocate(participants []models.User, tasks []models.Task, existing PairSet, quotaOf QuotaFunc) ([]Allocation, error)
}

var (
	_ Strategy = (*Manual)(nil)
	_ Strategy = (*Random)(nil)
	_ Strategy = (*Smart)(nil)
)

// picker chooses one task out of a non-empty available set.
type picker func(p models.User, available []models.Task) (models.Task, *float64)

// fill is the loop shared by every strategy: visit participants in order,
// give each up to its quota, never repeat a pair. A participant whose
// available set runs dry simply stops receiving tasks.
func fill(participants []models.User, tasks []models.Task, existing PairSet, quotaOf QuotaFunc, pick picker) []Allocation {
	var out []Allocation
	for _, p := range participants {
		needed := quotaOf(p.ID)
		for i := 0; i < needed; i++ {
			available := make([]models.Task, 0, len(tasks))
			for _, t := range tasks {
				if !existing.Has(p.ID, t.ID) {
					available = append(available, t)
				}
			}
			if len(available) == 0 {
				break
			}

			task, score := pick(p, available)
			existing.Add(p.ID, task.ID)
			out = append(out, Allocation{Participant: p, Task: task, MatchScore: score})
		}
	}
	return out
}

// Manual validates a single caller-chosen pair.
type Manual struct{}

func (Manual) Method() models.AssignmentMethod { return models.MethodManual }

func (Manual) Allocate(participants []models.User, tasks []models.Task, existing PairSet, quotaOf QuotaFunc) ([]Allocation, error) {
	if len(participants) != 1 || len(tasks) != 1 {
		return nil, errors.New("manual assignment takes exactly one participant and one task")
	}
	p, t := participants[0], tasks[0]
	if existing.Has(p.ID, t.ID) {
		return nil, ErrDuplicatePair
	}
	if quotaOf(p.ID) <= 0 {
		return nil, ErrQuotaExceeded
	}

	one := func(uuid.UUID) int { return 1 }
	return fill(participants, tasks, existing, one, func(_ models.User, available []models.Task) (models.Task, *float64) {
		return available[0], nil
	}), nil
}

// Random draws uniformly from each participant's available tasks.
type Random struct {
	// Rand is the draw source; nil uses the global generator.
	Rand *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{Rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (*Random) Method() models.AssignmentMethod { return models.MethodRandom }

func (r *Random) Allocate(participants []models.User, tasks []models.Task, existing PairSet, quotaOf QuotaFunc) ([]Allocation, error) {
	return fill(participants, tasks, existing, quotaOf, func(_ models.User, available []models.Task) (models.Task, *float64) {
		return available[r.intN(len(available))], nil
	}), nil
}

func (r *Random) intN(n int) int {
	if r.Rand == nil {
		return rand.IntN(n)
	}
	return r.Rand.IntN(n)
}

// Smart picks the available task whose tags best overlap the participant's
// skills. Ties keep task enumeration order.
type Smart struct{}

func (Smart) Method() models.AssignmentMethod { return models.MethodSmart }

func (Smart) Allocate(participants []models.User, tasks []models.Task, existing PairSet, quotaOf QuotaFunc) ([]Allocation, error) {
	return fill(participants, tasks, existing, quotaOf, func(p models.User, available []models.Task) (models.Task, *float64) {
		scores := make([]float64, len(available))
		idx := make([]int, len(available))
		for i, t := range available {
			scores[i] = MatchScore(p.Skills, t.Tags)
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return scores[idx[a]] > scores[idx[b]]
		})
		best := idx[0]
		score := scores[best]
		return available[best], &score
	}), nil
}

// MatchScore counts skills that overlap any tag, where overlap means one
// lowercased string contains the other, and divides by the larger set size.
//
// Substring overlap means "java" matches "javascript".
func MatchScore(skills, tags []string) float64 {
	if len(skills) == 0 || len(tags) == 0 {
		return 0
	}

	lowerTags := make([]string, len(tags))
	for i, t := range tags {
		lowerTags[i] = strings.ToLower(t)
	}

	matches := 0
	for _, s := range skills {
		skill := strings.ToLower(s)
		for _, tag := range lowerTags {
			if strings.Contains(tag, skill) || strings.Contains(skill, tag) {
				matches++
				break
			}
		}
	}

	return float64(matches) / float64(max(len(skills), len(tags)))
}

// ForMethod returns the batch strategy for a method. Manual has no batch form.
func ForMethod(method models.AssignmentMethod, seed *uint64) (Strategy, error) {
	switch method {
	case models.MethodRandom:
		if seed != nil {
			return NewRandom(*seed), nil
		}
		return &Random{}, nil
	case models.MethodSmart:
		return Smart{}, nil
	case models.MethodManual:
		return Manual{}, nil
	}
	return nil, errors.New("unknown assignment method: " + string(method))
}
