package scans

import (
	"math"
	"sort"
	"time"

	"github.com/franckalain/nutriscan/internal/models"
)

const recentLimit = 5

// AverageScore is the rounded mean score, 0 for no scans
func AverageScore(views []models.ScanView) int {
	if len(views) == 0 {
		return 0
	}
	var sum float64
	for _, v := range views {
		sum += v.Score
	}
	return int(math.Round(sum / float64(len(views))))
}

// HealthyCount counts scans at or above the healthy threshold
func HealthyCount(views []models.ScanView) int {
	n := 0
	for _, v := range views {
		if v.Score >= HealthyThreshold {
			n++
		}
	}
	return n
}

// SuccessRate is the rounded percentage of healthy scans. An empty
// collection is 0%.
func SuccessRate(views []models.ScanView) int {
	total := len(views)
	if total == 0 {
		total = 1
	}
	return int(math.Round(100 * float64(HealthyCount(views)) / float64(total)))
}

// WeeklyBuckets returns seven daily buckets for the trailing week including
// today, oldest first. Days are taken in now's location.
func WeeklyBuckets(views []models.ScanView, now time.Time) []models.WeeklyBucket {
	today := midnight(now, now.Location())
	buckets := make([]models.WeeklyBucket, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, -i)
		var count, healthy int
		var sum float64
		for _, v := range views {
			if !midnight(v.Date, now.Location()).Equal(day) {
				continue
			}
			count++
			sum += v.Score
			if v.Score >= HealthyThreshold {
				healthy++
			}
		}
		b := models.WeeklyBucket{
			Day:          day.Format("Mon"),
			Date:         day.Format(time.DateOnly),
			Count:        count,
			HealthyCount: healthy,
		}
		if count > 0 {
			b.AverageScore = int(math.Round(sum / float64(count)))
		}
		// oldest first
		buckets[6-i] = b
	}
	return buckets
}

// Streak counts consecutive days with at least one scan. The run may start
// today or yesterday; it ends at the first missing day.
func Streak(views []models.ScanView, now time.Time) int {
	loc := now.Location()
	today := midnight(now, loc)

	seen := make(map[string]struct{})
	days := make([]time.Time, 0, len(views))
	for _, v := range views {
		d := midnight(v.Date, loc)
		if d.After(today) {
			continue
		}
		key := d.Format(time.DateOnly)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 0
	cursor := today
	for _, d := range days {
		switch {
		case d.Equal(cursor):
		case streak == 0 && d.Equal(cursor.AddDate(0, 0, -1)):
		default:
			return streak
		}
		streak++
		cursor = d.AddDate(0, 0, -1)
	}
	return streak
}

// Summarize computes every dashboard aggregate from one user's scans. views
// is expected newest first, as retrieval returns it.
func Summarize(views []models.ScanView, now time.Time) models.Summary {
	recent := views
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return models.Summary{
		TotalScans:   len(views),
		AverageScore: AverageScore(views),
		HealthyCount: HealthyCount(views),
		SuccessRate:  SuccessRate(views),
		Streak:       Streak(views, now),
		Weekly:       WeeklyBuckets(views, now),
		Recent:       append([]models.ScanView{}, recent...),
	}
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
