package service

import (
	"context"
	"math"
	"sort"
	"time"

	"todoservice/internal/model"
	"todoservice/internal/repository"
)

const dayFormat = "2006-01-02"

type Overview struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

type Stats struct {
	Total             int            `json:"total"`
	Completed         int            `json:"completed"`
	Pending           int            `json:"pending"`
	PriorityBreakdown map[string]int `json:"priority_breakdown"`
	Overdue           int            `json:"overdue"`
}

type CategoryStat struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

type TimeMetrics struct {
	AverageCompletionTimeDays float64 `json:"average_completion_time_days"`
}

type DailyActivity struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

type Analytics struct {
	Overview          Overview                `json:"overview"`
	PriorityBreakdown map[string]int          `json:"priority_breakdown"`
	TimeMetrics       TimeMetrics             `json:"time_metrics"`
	DailyActivity     []DailyActivity         `json:"daily_activity"`
	CategoryStats     map[string]CategoryStat `json:"category_stats"`
}

// HistoryTodo is a todo tagged with what happened to it on a given day:
// created, completed, or created_and_completed.
type HistoryTodo struct {
	model.Todo
	ActivityType string `json:"activity_type"`
}

type HistoryDay struct {
	Date           string        `json:"date"`
	Todos          []HistoryTodo `json:"todos"`
	CreatedCount   int           `json:"created_count"`
	CompletedCount int           `json:"completed_count"`
}

type History struct {
	History   []HistoryDay `json:"history"`
	TotalDays int          `json:"total_days"`
}

type DaySummary struct {
	TotalActivities int `json:"total_activities"`
	Created         int `json:"created"`
	Completed       int `json:"completed"`
}

type DayHistory struct {
	Date    string        `json:"date"`
	Todos   []HistoryTodo `json:"todos"`
	Summary DaySummary    `json:"summary"`
}

// AnalyticsService derives statistics from the store's current
// snapshot. Nothing is cached; every call recomputes. Calendar-day
// bucketing uses UTC.
type AnalyticsService struct {
	store             repository.Store
	dailyActivityDays int
	now               func() time.Time
}

func NewAnalyticsService(store repository.Store, dailyActivityDays int) *AnalyticsService {
	if dailyActivityDays <= 0 {
		dailyActivityDays = 7
	}
	return &AnalyticsService{
		store:             store,
		dailyActivityDays: dailyActivityDays,
		now:               time.Now,
	}
}

// Stats backs GET /todos/stats.
func (s *AnalyticsService) Stats(ctx context.Context) (Stats, error) {
	todos, err := s.store.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	now := s.now().UTC()
	overview := computeOverview(todos, now)
	return Stats{
		Total:             overview.Total,
		Completed:         overview.Completed,
		Pending:           overview.Pending,
		PriorityBreakdown: computePriorityBreakdown(todos),
		Overdue:           overview.Overdue,
	}, nil
}

// Analytics backs GET /analytics.
func (s *AnalyticsService) Analytics(ctx context.Context) (Analytics, error) {
	todos, err := s.store.ListAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	now := s.now().UTC()
	return Analytics{
		Overview:          computeOverview(todos, now),
		PriorityBreakdown: computePriorityBreakdown(todos),
		TimeMetrics:       computeTimeMetrics(todos),
		DailyActivity:     computeDailyActivity(todos, now, s.dailyActivityDays),
		CategoryStats:     computeCategoryStats(todos),
	}, nil
}

// History backs GET /history. Days are ordered most recent first and
// truncated to limit; TotalDays counts every day with activity.
func (s *AnalyticsService) History(ctx context.Context, limit int) (History, error) {
	todos, err := s.store.ListAll(ctx)
	if err != nil {
		return History{}, err
	}
	if limit <= 0 {
		limit = 30
	}
	// Bound the scan the way the original service did: twice the day
	// window of the newest todos.
	if len(todos) > limit*2 {
		todos = todos[:limit*2]
	}

	byDate := make(map[string]*HistoryDay)
	day := func(date string) *HistoryDay {
		if d, ok := byDate[date]; ok {
			return d
		}
		d := &HistoryDay{Date: date, Todos: []HistoryTodo{}}
		byDate[date] = d
		return d
	}

	for _, t := range todos {
		createdDate := t.CreatedAt.UTC().Format(dayFormat)
		created := day(createdDate)
		created.CreatedCount++

		activity := "created"
		if t.CompletedAt != nil {
			completedDate := t.CompletedAt.UTC().Format(dayFormat)
			if completedDate == createdDate {
				activity = "created_and_completed"
				created.CompletedCount++
			} else {
				completed := day(completedDate)
				completed.CompletedCount++
				completed.Todos = append(completed.Todos, HistoryTodo{Todo: t, ActivityType: "completed"})
			}
		}
		created.Todos = append(created.Todos, HistoryTodo{Todo: t, ActivityType: activity})
	}

	days := make([]HistoryDay, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	total := len(days)
	if len(days) > limit {
		days = days[:limit]
	}
	return History{History: days, TotalDays: total}, nil
}

// DayHistory backs GET /history/:date for a single calendar day.
func (s *AnalyticsService) DayHistory(ctx context.Context, date string) (DayHistory, error) {
	todos, err := s.store.ListAll(ctx)
	if err != nil {
		return DayHistory{}, err
	}

	var createdCount, completedCount int
	entries := map[int]HistoryTodo{}
	for _, t := range todos {
		createdHere := t.CreatedAt.UTC().Format(dayFormat) == date
		completedHere := t.CompletedAt != nil && t.CompletedAt.UTC().Format(dayFormat) == date
		if createdHere {
			createdCount++
		}
		if completedHere {
			completedCount++
		}
		switch {
		case createdHere && completedHere:
			entries[t.ID] = HistoryTodo{Todo: t, ActivityType: "created_and_completed"}
		case createdHere:
			entries[t.ID] = HistoryTodo{Todo: t, ActivityType: "created"}
		case completedHere:
			entries[t.ID] = HistoryTodo{Todo: t, ActivityType: "completed"}
		}
	}

	result := make([]HistoryTodo, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return DayHistory{
		Date:  date,
		Todos: result,
		Summary: DaySummary{
			TotalActivities: len(result),
			Created:         createdCount,
			Completed:       completedCount,
		},
	}, nil
}

func computeOverview(todos []model.Todo, now time.Time) Overview {
	o := Overview{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			o.Completed++
		}
		if t.Overdue(now) {
			o.Overdue++
		}
	}
	o.Pending = o.Total - o.Completed
	if o.Total > 0 {
		o.CompletionRate = math.Round(float64(o.Completed)/float64(o.Total)*1000) / 10
	}
	return o
}

func computePriorityBreakdown(todos []model.Todo) map[string]int {
	breakdown := map[string]int{
		model.PriorityHigh:   0,
		model.PriorityMedium: 0,
		model.PriorityLow:    0,
	}
	for _, t := range todos {
		breakdown[t.Priority]++
	}
	return breakdown
}

func computeCategoryStats(todos []model.Todo) map[string]CategoryStat {
	stats := map[string]CategoryStat{}
	for _, t := range todos {
		s := stats[t.Category]
		s.Total++
		if t.Completed {
			s.Completed++
		}
		s.Pending = s.Total - s.Completed
		stats[t.Category] = s
	}
	return stats
}

func computeTimeMetrics(todos []model.Todo) TimeMetrics {
	var sum float64
	var n int
	for _, t := range todos {
		if t.Completed && t.CompletedAt != nil {
			sum += t.CompletedAt.Sub(t.CreatedAt).Hours() / 24
			n++
		}
	}
	if n == 0 {
		return TimeMetrics{}
	}
	return TimeMetrics{AverageCompletionTimeDays: sum / float64(n)}
}

func computeDailyActivity(todos []model.Todo, now time.Time, days int) []DailyActivity {
	activity := make([]DailyActivity, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -(days - 1 - i)).Format(dayFormat)
		activity[i] = DailyActivity{Date: date}
		index[date] = i
	}
	for _, t := range todos {
		if i, ok := index[t.CreatedAt.UTC().Format(dayFormat)]; ok {
			activity[i].Created++
		}
		if t.CompletedAt != nil {
			if i, ok := index[t.CompletedAt.UTC().Format(dayFormat)]; ok {
				activity[i].Completed++
			}
		}
	}
	return activity
}
