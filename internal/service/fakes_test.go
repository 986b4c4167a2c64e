package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

const (
	adminID    = "0b7c6c1e-1f0a-4c1e-9a51-000000000001"
	facultyID  = "0b7c6c1e-1f0a-4c1e-9a51-000000000002"
	faculty2ID = "0b7c6c1e-1f0a-4c1e-9a51-000000000003"
	student1ID = "0b7c6c1e-1f0a-4c1e-9a51-000000000011"
	student2ID = "0b7c6c1e-1f0a-4c1e-9a51-000000000012"
	outsiderID = "0b7c6c1e-1f0a-4c1e-9a51-000000000019"
	classAID   = "0b7c6c1e-1f0a-4c1e-9a51-0000000000a1"
	classBID   = "0b7c6c1e-1f0a-4c1e-9a51-0000000000b1"
	mathsID    = "0b7c6c1e-1f0a-4c1e-9a51-0000000000c1"
	physicsID  = "0b7c6c1e-1f0a-4c1e-9a51-0000000000c2"
	chemID     = "0b7c6c1e-1f0a-4c1e-9a51-0000000000c3"
	missingID  = "0b7c6c1e-1f0a-4c1e-9a51-0000000000ff"
)

var (
	adminActor   = Actor{ID: adminID, Role: models.RoleAdmin}
	facultyActor = Actor{ID: facultyID, Role: models.RoleFaculty}
	studentActor = Actor{ID: student1ID, Role: models.RoleStudent, ClassID: classAID}
)

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

// fakeDB is the shared in-memory state behind the fake repositories.
type fakeDB struct {
	users    map[string]*models.User
	classes  map[string]*models.Class
	subjects map[string]*models.Subject
	audits   []*models.AuditLog
	err      error
}

// newFakeDB seeds two classes, three subjects, two faculty members and three students.
// Class A holds student1 and student2 with Maths and Physics, class B holds outsider with Chemistry.
func newFakeDB() *fakeDB {
	db := &fakeDB{
		users: map[string]*models.User{
			adminID:    {ID: adminID, Email: "admin@dept.test", FullName: "Admin", Role: models.RoleAdmin, Active: true},
			facultyID:  {ID: facultyID, Email: "ravi@dept.test", FullName: "Ravi Kumar", Role: models.RoleFaculty, Active: true},
			faculty2ID: {ID: faculty2ID, Email: "meena@dept.test", FullName: "Meena Iyer", Role: models.RoleFaculty, Active: true},
			student1ID: {ID: student1ID, Email: "asha@dept.test", FullName: "Asha", Role: models.RoleStudent, Active: true, ClassID: strPtr(classAID), RollNumber: strPtr("01")},
			student2ID: {ID: student2ID, Email: "bala@dept.test", FullName: "Bala", Role: models.RoleStudent, Active: true, ClassID: strPtr(classAID), RollNumber: strPtr("02")},
			outsiderID: {ID: outsiderID, Email: "chitra@dept.test", FullName: "Chitra", Role: models.RoleStudent, Active: true, ClassID: strPtr(classBID)},
		},
		classes: map[string]*models.Class{
			classAID: {ID: classAID, Name: "CSE-A", AcademicYear: "2024-25", InChargeID: strPtr(facultyID)},
			classBID: {ID: classBID, Name: "CSE-B", AcademicYear: "2024-25", InChargeID: strPtr(faculty2ID)},
		},
		subjects: map[string]*models.Subject{
			mathsID:   {ID: mathsID, Code: "MA101", Name: "Maths", ClassID: classAID, FacultyID: facultyID},
			physicsID: {ID: physicsID, Code: "PH101", Name: "Physics", ClassID: classAID, FacultyID: faculty2ID},
			chemID:    {ID: chemID, Code: "CH101", Name: "Chemistry", ClassID: classBID, FacultyID: facultyID},
		},
	}
	return db
}

func (db *fakeDB) userName(id string) string {
	if u, ok := db.users[id]; ok {
		return u.FullName
	}
	return ""
}

type fakeUsers struct{ db *fakeDB }

func (f *fakeUsers) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if f.db.err != nil {
		return nil, 0, f.db.err
	}
	var users []models.User
	for _, u := range f.db.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, len(users), nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if f.db.err != nil {
		return nil, f.db.err
	}
	if u, ok := f.db.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FindDetailByID(ctx context.Context, id string) (*models.UserDetail, error) {
	user, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.UserDetail{User: *user}
	if user.ClassID != nil {
		if c, ok := f.db.classes[*user.ClassID]; ok {
			detail.ClassName = strPtr(c.Name)
		}
	}
	return detail, nil
}

func (f *fakeUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.db.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	copy := *user
	f.db.users[user.ID] = &copy
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *models.User) error {
	copy := *user
	f.db.users[user.ID] = &copy
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	delete(f.db.users, id)
	return nil
}

func (f *fakeUsers) CountFacultyReferences(_ context.Context, id string) (int, error) {
	var refs int
	for _, c := range f.db.classes {
		if c.InChargeID != nil && *c.InChargeID == id {
			refs++
		}
	}
	for _, s := range f.db.subjects {
		if s.FacultyID == id {
			refs++
		}
	}
	return refs, nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role models.UserRole) (int, error) {
	if f.db.err != nil {
		return 0, f.db.err
	}
	var n int
	for _, u := range f.db.users {
		if u.Role == role && u.Active {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.db.audits = append(f.db.audits, log)
	return nil
}

type fakeClasses struct{ db *fakeDB }

func (f *fakeClasses) List(_ context.Context, _ models.ClassFilter) ([]models.ClassDetail, int, error) {
	if f.db.err != nil {
		return nil, 0, f.db.err
	}
	var out []models.ClassDetail
	for _, c := range f.db.classes {
		out = append(out, models.ClassDetail{Class: *c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (f *fakeClasses) FindByID(_ context.Context, id string) (*models.Class, error) {
	if f.db.err != nil {
		return nil, f.db.err
	}
	if c, ok := f.db.classes[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClasses) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, _ := f.CountStudents(ctx, id)
	detail := &models.ClassDetail{Class: *class, StudentCount: n}
	if class.InChargeID != nil {
		detail.InChargeName = strPtr(f.db.userName(*class.InChargeID))
	}
	return detail, nil
}

func (f *fakeClasses) ListByInCharge(_ context.Context, id string) ([]models.Class, error) {
	var out []models.Class
	for _, c := range f.db.classes {
		if c.InChargeID != nil && *c.InChargeID == id {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeClasses) ExistsByName(_ context.Context, name, excludeID string) (bool, error) {
	for _, c := range f.db.classes {
		if c.ID != excludeID && strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClasses) Count(_ context.Context) (int, error) { return len(f.db.classes), nil }

func (f *fakeClasses) Create(_ context.Context, class *models.Class) error {
	copy := *class
	f.db.classes[class.ID] = &copy
	return nil
}

func (f *fakeClasses) Update(ctx context.Context, class *models.Class) error {
	return f.Create(ctx, class)
}

func (f *fakeClasses) Delete(ctx context.Context, id string) error {
	if n, _ := f.CountStudents(ctx, id); n > 0 {
		return repository.ErrClassHasStudents
	}
	delete(f.db.classes, id)
	return nil
}

func (f *fakeClasses) CountStudents(_ context.Context, id string) (int, error) {
	var n int
	for _, u := range f.db.users {
		if u.ClassID != nil && *u.ClassID == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeClasses) ListStudents(_ context.Context, id string) ([]models.ClassStudent, error) {
	if f.db.err != nil {
		return nil, f.db.err
	}
	var out []models.ClassStudent
	for _, u := range f.db.users {
		if u.Role == models.RoleStudent && u.ClassID != nil && *u.ClassID == id {
			out = append(out, models.ClassStudent{ID: u.ID, FullName: u.FullName, Email: u.Email, RollNumber: u.RollNumber})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type fakeSubjects struct{ db *fakeDB }

func (f *fakeSubjects) List(_ context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error) {
	var out []models.SubjectDetail
	for _, s := range f.db.subjects {
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			continue
		}
		out = append(out, models.SubjectDetail{Subject: *s, FacultyName: f.db.userName(s.FacultyID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (f *fakeSubjects) FindByID(_ context.Context, id string) (*models.Subject, error) {
	if f.db.err != nil {
		return nil, f.db.err
	}
	if s, ok := f.db.subjects[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSubjects) FindDetailByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	subject, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.SubjectDetail{Subject: *subject, FacultyName: f.db.userName(subject.FacultyID)}
	if c, ok := f.db.classes[subject.ClassID]; ok {
		detail.ClassName = c.Name
	}
	return detail, nil
}

func (f *fakeSubjects) ExistsByCode(_ context.Context, code, excludeID string) (bool, error) {
	for _, s := range f.db.subjects {
		if s.ID != excludeID && strings.EqualFold(s.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubjects) Count(_ context.Context) (int, error) { return len(f.db.subjects), nil }

func (f *fakeSubjects) Create(_ context.Context, subject *models.Subject) error {
	copy := *subject
	f.db.subjects[subject.ID] = &copy
	return nil
}

func (f *fakeSubjects) Update(ctx context.Context, subject *models.Subject) error {
	return f.Create(ctx, subject)
}

func (f *fakeSubjects) Delete(_ context.Context, id string) error {
	delete(f.db.subjects, id)
	return nil
}

func (f *fakeSubjects) ListByClass(_ context.Context, classID string) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range f.db.subjects {
		if s.ClassID == classID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSubjects) ListByFaculty(_ context.Context, id string) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range f.db.subjects {
		if s.FacultyID == id {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeTimetable struct {
	db       *fakeDB
	slots    map[string][]models.TimetableSlot
	replaced int
}

func newFakeTimetable(db *fakeDB) *fakeTimetable {
	return &fakeTimetable{db: db, slots: make(map[string][]models.TimetableSlot)}
}

func (f *fakeTimetable) detail(slot models.TimetableSlot) models.TimetableSlotDetail {
	d := models.TimetableSlotDetail{TimetableSlot: slot}
	if c, ok := f.db.classes[slot.ClassID]; ok {
		d.ClassName = c.Name
	}
	if slot.SubjectID != nil {
		if s, ok := f.db.subjects[*slot.SubjectID]; ok {
			d.SubjectName = strPtr(s.Name)
			d.FacultyID = strPtr(s.FacultyID)
			d.FacultyName = strPtr(f.db.userName(s.FacultyID))
		}
	}
	return d
}

func (f *fakeTimetable) ListByClass(_ context.Context, classID string) ([]models.TimetableSlotDetail, error) {
	var out []models.TimetableSlotDetail
	for _, slot := range f.slots[classID] {
		out = append(out, f.detail(slot))
	}
	return out, nil
}

func (f *fakeTimetable) ListByFaculty(_ context.Context, id string) ([]models.TimetableSlotDetail, error) {
	var out []models.TimetableSlotDetail
	for _, slots := range f.slots {
		for _, slot := range slots {
			d := f.detail(slot)
			if d.FacultyID != nil && *d.FacultyID == id {
				out = append(out, d)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out, nil
}

func (f *fakeTimetable) Replace(_ context.Context, classID string, slots []models.TimetableSlot) error {
	f.replaced++
	f.slots[classID] = append([]models.TimetableSlot(nil), slots...)
	return nil
}

type attendanceKey struct {
	student, subject, date string
	period                 int
}

type fakeAttendance struct {
	db      *fakeDB
	records map[attendanceKey]models.AttendanceRecord
	err     error
}

func newFakeAttendance(db *fakeDB) *fakeAttendance {
	return &fakeAttendance{db: db, records: make(map[attendanceKey]models.AttendanceRecord)}
}

func (f *fakeAttendance) BulkUpsert(_ context.Context, records []models.AttendanceRecord) error {
	if f.err != nil {
		return f.err
	}
	for _, r := range records {
		key := attendanceKey{r.StudentID, r.SubjectID, r.Date.Format(dateLayout), r.Period}
		if existing, ok := f.records[key]; ok {
			r.ID = existing.ID
		}
		f.records[key] = r
	}
	return nil
}

func (f *fakeAttendance) entry(r models.AttendanceRecord) models.AttendanceEntry {
	e := models.AttendanceEntry{StudentID: r.StudentID, StudentName: f.db.userName(r.StudentID), SubjectID: r.SubjectID, Date: r.Date, Period: r.Period, Present: r.Present}
	if s, ok := f.db.subjects[r.SubjectID]; ok {
		e.SubjectName = s.Name
	}
	return e
}

func (f *fakeAttendance) ClassSheet(ctx context.Context, classID, subjectID string, date time.Time, period int) ([]models.AttendanceSheetRow, error) {
	roster, _ := (&fakeClasses{db: f.db}).ListStudents(ctx, classID)
	rows := make([]models.AttendanceSheetRow, 0, len(roster))
	for _, s := range roster {
		row := models.AttendanceSheetRow{StudentID: s.ID, StudentName: s.FullName, RollNumber: s.RollNumber}
		if r, ok := f.records[attendanceKey{s.ID, subjectID, date.Format(dateLayout), period}]; ok {
			row.Present = boolPtr(r.Present)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeAttendance) ListByStudent(_ context.Context, studentID string) ([]models.AttendanceEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AttendanceEntry
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, f.entry(r))
		}
	}
	return out, nil
}

func (f *fakeAttendance) ListByClassSubject(_ context.Context, classID, subjectID string) ([]models.AttendanceEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AttendanceEntry
	for _, r := range f.records {
		if r.ClassID == classID && r.SubjectID == subjectID {
			out = append(out, f.entry(r))
		}
	}
	return out, nil
}

type markKey struct{ student, subject, assessment string }

type fakeMarks struct {
	db      *fakeDB
	records map[markKey]models.MarkRecord
	lists   int
	err     error
}

func newFakeMarks(db *fakeDB) *fakeMarks {
	return &fakeMarks{db: db, records: make(map[markKey]models.MarkRecord)}
}

func (f *fakeMarks) BulkUpsert(_ context.Context, records []models.MarkRecord) error {
	if f.err != nil {
		return f.err
	}
	for _, r := range records {
		key := markKey{r.StudentID, r.SubjectID, r.Assessment}
		if existing, ok := f.records[key]; ok {
			r.ID = existing.ID
		}
		f.records[key] = r
	}
	return nil
}

func (f *fakeMarks) List(_ context.Context, filter models.MarkFilter) ([]models.MarkEntry, error) {
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.MarkEntry
	for _, r := range f.records {
		if filter.ClassID != "" && r.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && r.SubjectID != filter.SubjectID {
			continue
		}
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.Assessment != "" && r.Assessment != filter.Assessment {
			continue
		}
		e := models.MarkEntry{StudentID: r.StudentID, StudentName: f.db.userName(r.StudentID), SubjectID: r.SubjectID, Assessment: r.Assessment, MarksObtained: r.MarksObtained, MaxMarks: r.MaxMarks}
		if u, ok := f.db.users[r.StudentID]; ok {
			e.RollNumber = u.RollNumber
		}
		if s, ok := f.db.subjects[r.SubjectID]; ok {
			e.SubjectName = s.Name
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectName != out[j].SubjectName {
			return out[i].SubjectName < out[j].SubjectName
		}
		if out[i].Assessment != out[j].Assessment {
			return out[i].Assessment < out[j].Assessment
		}
		return out[i].StudentName < out[j].StudentName
	})
	return out, nil
}

func (f *fakeMarks) ListAssessments(_ context.Context, classID, subjectID string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range f.records {
		if r.ClassID == classID && r.SubjectID == subjectID && !seen[r.Assessment] {
			seen[r.Assessment] = true
			out = append(out, r.Assessment)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeEvents struct {
	events     []models.Event
	lastFilter models.EventFilter
}

func (f *fakeEvents) Create(_ context.Context, event *models.Event) error {
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEvents) FindByID(_ context.Context, id string) (*models.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			copy := f.events[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEvents) Delete(_ context.Context, id string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeEvents) List(_ context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	f.lastFilter = filter
	var out []models.Event
	for _, e := range f.events {
		global := len(e.TargetClassIDs) == 0
		if filter.GlobalOnly && !global {
			continue
		}
		if filter.ClassID != "" && !global && !containsString(e.TargetClassIDs, filter.ClassID) {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// stubCacheRepo keeps JSON payloads in memory and honours glob invalidation.
type stubCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.deleted = append(s.deleted, pattern)
	var n int
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
			n++
		}
	}
	return n, nil
}
