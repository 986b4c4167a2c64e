package service

import (
	"math"
	"sort"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// GradeNotApplicable is returned when a mark has no positive maximum.
const GradeNotApplicable = "N/A"

// gradeBands is ordered by descending lower bound. The C band starts at 50 but the B band
// already takes everything from 51, so only [50, 51) maps to C.
var gradeBands = []struct {
	min    float64
	letter string
}{
	{91, "O"},
	{81, "A+"},
	{71, "A"},
	{61, "B+"},
	{51, "B"},
	{50, "C"},
}

// Percentage returns obtained over max as a percentage, 0 when max is not positive.
func Percentage(obtained, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return obtained / max * 100
}

// Grade maps a mark onto its letter grade.
func Grade(obtained, max float64) string {
	if max <= 0 {
		return GradeNotApplicable
	}
	p := Percentage(obtained, max)
	for _, band := range gradeBands {
		if p >= band.min {
			return band.letter
		}
	}
	return "U"
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// distributionBands are the histogram ranges over whole percentages.
var distributionBands = []models.DistributionBucket{
	{Label: "0-39", Min: 0, Max: 39},
	{Label: "40-49", Min: 40, Max: 49},
	{Label: "50-59", Min: 50, Max: 59},
	{Label: "60-69", Min: 60, Max: 69},
	{Label: "70-79", Min: 70, Max: 79},
	{Label: "80-89", Min: 80, Max: 89},
	{Label: "90-100", Min: 90, Max: 100},
}

// BuildDistribution buckets marks by the floor of their percentage. Marks without a positive
// maximum are skipped; anything above 100 lands in the top band.
func BuildDistribution(entries []models.MarkEntry) ([]models.DistributionBucket, int) {
	buckets := make([]models.DistributionBucket, len(distributionBands))
	copy(buckets, distributionBands)

	total := 0
	for _, entry := range entries {
		if entry.MaxMarks <= 0 {
			continue
		}
		p := int(math.Floor(Percentage(entry.MarksObtained, entry.MaxMarks)))
		idx := len(buckets) - 1
		for i, b := range buckets {
			if p <= b.Max {
				idx = i
				break
			}
		}
		buckets[idx].Count++
		total++
	}
	return buckets, total
}

// BuildPerformanceFlags ranks marks into watch (<50), top (>=90) and average lists, each capped at limit.
func BuildPerformanceFlags(entries []models.MarkEntry, limit int) (watch, top, average []models.PerformanceEntry) {
	watch = []models.PerformanceEntry{}
	top = []models.PerformanceEntry{}
	average = []models.PerformanceEntry{}

	for _, entry := range entries {
		if entry.MaxMarks <= 0 {
			continue
		}
		p := Percentage(entry.MarksObtained, entry.MaxMarks)
		ranked := models.PerformanceEntry{
			StudentID:     entry.StudentID,
			StudentName:   entry.StudentName,
			Assessment:    entry.Assessment,
			MarksObtained: entry.MarksObtained,
			MaxMarks:      entry.MaxMarks,
			Percentage:    roundTo(p, 2),
		}
		switch {
		case p < 50:
			watch = append(watch, ranked)
		case p >= 90:
			top = append(top, ranked)
		default:
			average = append(average, ranked)
		}
	}

	sort.SliceStable(watch, func(i, j int) bool { return watch[i].Percentage < watch[j].Percentage })
	sort.SliceStable(top, func(i, j int) bool { return top[i].Percentage > top[j].Percentage })
	sort.SliceStable(average, func(i, j int) bool { return average[i].Percentage > average[j].Percentage })

	return capEntries(watch, limit), capEntries(top, limit), capEntries(average, limit)
}

// CountStudentsToWatch counts distinct students holding at least one mark below 50%.
func CountStudentsToWatch(entries []models.MarkEntry) int {
	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.MaxMarks > 0 && Percentage(entry.MarksObtained, entry.MaxMarks) < 50 {
			seen[entry.StudentID] = struct{}{}
		}
	}
	return len(seen)
}

func capEntries(list []models.PerformanceEntry, limit int) []models.PerformanceEntry {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// SummarisePerformance aggregates a student's marks per subject and picks the best subject and
// the one needing improvement. Ties go to the first subject by name.
func SummarisePerformance(studentID string, entries []models.MarkEntry) models.StudentPerformance {
	summary := models.StudentPerformance{StudentID: studentID, Subjects: []models.SubjectPerformance{}}

	index := make(map[string]int)
	for _, entry := range entries {
		i, ok := index[entry.SubjectID]
		if !ok {
			i = len(summary.Subjects)
			index[entry.SubjectID] = i
			summary.Subjects = append(summary.Subjects, models.SubjectPerformance{SubjectID: entry.SubjectID, SubjectName: entry.SubjectName})
		}
		summary.Subjects[i].MarksObtained += entry.MarksObtained
		summary.Subjects[i].MaxMarks += entry.MaxMarks
	}
	if len(summary.Subjects) == 0 {
		return summary
	}

	sort.SliceStable(summary.Subjects, func(i, j int) bool {
		return summary.Subjects[i].SubjectName < summary.Subjects[j].SubjectName
	})

	var sum float64
	best, worst := 0, 0
	for i := range summary.Subjects {
		subject := &summary.Subjects[i]
		p := Percentage(subject.MarksObtained, subject.MaxMarks)
		subject.Grade = Grade(subject.MarksObtained, subject.MaxMarks)
		subject.Percentage = roundTo(p, 2)
		sum += p
		if p > Percentage(summary.Subjects[best].MarksObtained, summary.Subjects[best].MaxMarks) {
			best = i
		}
		if p < Percentage(summary.Subjects[worst].MarksObtained, summary.Subjects[worst].MaxMarks) {
			worst = i
		}
	}

	summary.OverallAverage = roundTo(sum/float64(len(summary.Subjects)), 2)
	bestName := summary.Subjects[best].SubjectName
	summary.BestSubject = &bestName
	if len(summary.Subjects) > 1 {
		worstName := summary.Subjects[worst].SubjectName
		summary.SubjectForImprovement = &worstName
	}
	return summary
}

func attendanceRatio(present, total int) models.AttendanceRatio {
	ratio := models.AttendanceRatio{Present: present, Total: total}
	if total > 0 {
		ratio.Percentage = roundTo(float64(present)/float64(total)*100, 2)
	}
	return ratio
}

// SummariseStudentAttendance groups a student's marks by subject. No records gives 0%.
func SummariseStudentAttendance(studentID string, entries []models.AttendanceEntry) models.StudentAttendanceSummary {
	summary := models.StudentAttendanceSummary{StudentID: studentID, Subjects: []models.SubjectAttendance{}}

	type tally struct{ present, total int }
	index := make(map[string]int)
	counts := []tally{}
	var present int
	for _, entry := range entries {
		i, ok := index[entry.SubjectID]
		if !ok {
			i = len(summary.Subjects)
			index[entry.SubjectID] = i
			summary.Subjects = append(summary.Subjects, models.SubjectAttendance{SubjectID: entry.SubjectID, SubjectName: entry.SubjectName})
			counts = append(counts, tally{})
		}
		counts[i].total++
		if entry.Present {
			counts[i].present++
			present++
		}
	}
	for i := range summary.Subjects {
		summary.Subjects[i].AttendanceRatio = attendanceRatio(counts[i].present, counts[i].total)
	}
	sort.SliceStable(summary.Subjects, func(i, j int) bool {
		return summary.Subjects[i].SubjectName < summary.Subjects[j].SubjectName
	})
	summary.Overall = attendanceRatio(present, len(entries))
	return summary
}

// SummariseClassSubjectAttendance reports every rostered student, including those never marked.
func SummariseClassSubjectAttendance(classID, subjectID string, roster []models.ClassStudent, entries []models.AttendanceEntry) models.ClassSubjectAttendance {
	report := models.ClassSubjectAttendance{ClassID: classID, SubjectID: subjectID, Students: make([]models.StudentAttendanceRow, 0, len(roster))}

	type tally struct{ present, total int }
	counts := make(map[string]*tally, len(roster))
	for _, student := range roster {
		counts[student.ID] = &tally{}
	}

	var present, total int
	for _, entry := range entries {
		t, ok := counts[entry.StudentID]
		if !ok {
			// marked while in the class and moved since; still part of the subject-wide ratio
			t = &tally{}
			counts[entry.StudentID] = t
		}
		t.total++
		total++
		if entry.Present {
			t.present++
			present++
		}
	}

	for _, student := range roster {
		t := counts[student.ID]
		report.Students = append(report.Students, models.StudentAttendanceRow{
			StudentID:       student.ID,
			StudentName:     student.FullName,
			RollNumber:      student.RollNumber,
			AttendanceRatio: attendanceRatio(t.present, t.total),
		})
	}
	report.Overall = attendanceRatio(present, total)
	return report
}
