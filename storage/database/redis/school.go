package redisrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

// Key layout, every key under the configured prefix:
//
//	seq                       counter giving insertion order
//	<kind>:<id>               hash of the record fields
//	<kind>s                   sorted set of ids, scored by insertion order
//	<kind>s:emails            hash lowercase email -> id (students, instructors)
//	course:<id>:students      sorted set of enrolled student ids
//	student:<id>:courses      sorted set of registered course ids
//	enrollments               sorted set of "<course id>\x00<student id>"
const pairSep = "\x00"

type schoolRepository struct {
	client *redis.Client
	prefix string
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

// Open connects to the configured redis server.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address(),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func NewSchoolRepository(client *redis.Client, prefix string) (school.Repository, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(client, "client"),
		vala.StringNotEmpty(prefix, "prefix"),
	).Check()
	if err != nil {
		return nil, err
	}
	return &schoolRepository{client: client, prefix: prefix}, nil
}

func (repo *schoolRepository) key(parts ...string) string {
	return repo.prefix + ":" + strings.Join(parts, ":")
}

func (repo *schoolRepository) next(ctx context.Context) (float64, error) {
	n, err := repo.client.Incr(ctx, repo.key("seq")).Result()
	if err != nil {
		return 0, errors.Wrap(err, "incrementing sequence")
	}
	return float64(n), nil
}

func (repo *schoolRepository) exists(ctx context.Context, kind, id string) (bool, error) {
	n, err := repo.client.Exists(ctx, repo.key(kind, id)).Result()
	if err != nil {
		return false, errors.Wrapf(err, "checking %s", kind)
	}
	return n > 0, nil
}

func (repo *schoolRepository) mustExist(ctx context.Context, kind, id string) error {
	found, err := repo.exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !found {
		return core.NewNotFoundError(kind, id)
	}
	return nil
}

func (repo *schoolRepository) ids(ctx context.Context, key string) ([]string, error) {
	ids, err := repo.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return ids, nil
}

func (repo *schoolRepository) CreateSchema(ctx context.Context) error {
	return errors.Wrap(repo.client.Ping(ctx).Err(), "pinging redis")
}

// People

func (repo *schoolRepository) claimEmail(ctx context.Context, kind, id, email string) error {
	key := repo.key(kind+"s", "emails")
	email = strings.ToLower(email)
	claimed, err := repo.client.HSetNX(ctx, key, email, id).Result()
	if err != nil {
		return errors.Wrapf(err, "checking %s email uniqueness", kind)
	}
	if claimed {
		return nil
	}
	owner, err := repo.client.HGet(ctx, key, email).Result()
	if err != nil {
		return errors.Wrapf(err, "checking %s email uniqueness", kind)
	}
	if owner != id {
		return core.NewUniquenessError(kind, "email", email)
	}
	return nil
}

// releaseEmail drops the claim on email if id still owns it.
var releaseEmail = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

func (repo *schoolRepository) releaseEmail(ctx context.Context, kind, id, email string) error {
	key := repo.key(kind+"s", "emails")
	err := releaseEmail.Run(ctx, repo.client, []string{key}, strings.ToLower(email), id).Err()
	return errors.Wrapf(err, "releasing %s email", kind)
}

func (repo *schoolRepository) insertPerson(ctx context.Context, kind, id string, p school.Person) error {
	found, err := repo.exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if found {
		return core.NewUniquenessError(kind, kind+"_id", id)
	}
	if err = repo.claimEmail(ctx, kind, id, p.Email()); err != nil {
		return err
	}
	seq, err := repo.next(ctx)
	if err == nil {
		_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, repo.key(kind, id), "name", p.Name(), "age", p.Age(), "email", p.Email())
			pipe.ZAdd(ctx, repo.key(kind+"s"), redis.Z{Score: seq, Member: id})
			return nil
		})
		err = errors.Wrapf(err, "inserting %s", kind)
	}
	if err != nil {
		if rErr := repo.releaseEmail(ctx, kind, id, p.Email()); rErr != nil {
			return errors.Wrapf(err, "%v", rErr)
		}
		return err
	}
	return nil
}

func (repo *schoolRepository) getPerson(ctx context.Context, kind, id string) (school.Person, error) {
	fields, err := repo.client.HGetAll(ctx, repo.key(kind, id)).Result()
	if err != nil {
		return school.Person{}, errors.Wrapf(err, "getting %s", kind)
	}
	if len(fields) == 0 {
		return school.Person{}, core.NewNotFoundError(kind, id)
	}
	return personFromHash(fields)
}

func personFromHash(fields map[string]string) (school.Person, error) {
	age, err := strconv.Atoi(fields["age"])
	if err != nil {
		return school.Person{}, errors.Wrap(err, "reading age")
	}
	return school.NewPerson(fields["name"], age, fields["email"])
}

// queryPeople returns the people of kind keyed by id, with their ids in insertion order.
func (repo *schoolRepository) queryPeople(ctx context.Context, kind string) ([]string, map[string]school.Person, error) {
	ids, err := repo.ids(ctx, repo.key(kind+"s"))
	if err != nil {
		return nil, nil, err
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = repo.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for idx, id := range ids {
			cmds[idx] = pipe.HGetAll(ctx, repo.key(kind, id))
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "querying %ss", kind)
	}

	people := make(map[string]school.Person, len(ids))
	for idx, id := range ids {
		p, err := personFromHash(cmds[idx].Val())
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s %s", kind, id)
		}
		people[id] = p
	}
	return ids, people, nil
}

func (repo *schoolRepository) updatePerson(ctx context.Context, kind, id string, p school.Person) error {
	orig, err := repo.getPerson(ctx, kind, id)
	if err != nil {
		return err
	}
	oldEmail, newEmail := strings.ToLower(orig.Email()), strings.ToLower(p.Email())
	if oldEmail != newEmail {
		if err = repo.claimEmail(ctx, kind, id, newEmail); err != nil {
			return err
		}
	}

	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, repo.key(kind, id), "name", p.Name(), "age", p.Age(), "email", p.Email())
		if oldEmail != newEmail {
			pipe.HDel(ctx, repo.key(kind+"s", "emails"), oldEmail)
		}
		return nil
	})
	if err != nil && oldEmail != newEmail {
		if rErr := repo.releaseEmail(ctx, kind, id, newEmail); rErr != nil {
			return errors.Wrapf(err, "updating %s: %v", kind, rErr)
		}
	}
	return errors.Wrapf(err, "updating %s", kind)
}

func (repo *schoolRepository) deletePerson(ctx context.Context, kind, id string, pipe redis.Pipeliner) error {
	p, err := repo.getPerson(ctx, kind, id)
	if err != nil {
		return err
	}
	pipe.Del(ctx, repo.key(kind, id))
	pipe.ZRem(ctx, repo.key(kind+"s"), id)
	pipe.HDel(ctx, repo.key(kind+"s", "emails"), strings.ToLower(p.Email()))
	return nil
}

// Students

func (repo *schoolRepository) InsertStudent(ctx context.Context, s *school.Student) error {
	return repo.insertPerson(ctx, school.KindStudent, s.StudentID(), s.Person)
}

func (repo *schoolRepository) GetStudent(ctx context.Context, id string) (*school.Student, error) {
	p, err := repo.getPerson(ctx, school.KindStudent, id)
	if err != nil {
		return nil, err
	}
	return school.NewStudent(p.Name(), p.Age(), p.Email(), id)
}

func (repo *schoolRepository) QueryStudents(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Student, error) {
	ids, people, err := repo.queryPeople(ctx, school.KindStudent)
	if err != nil {
		return nil, err
	}
	students := make([]*school.Student, 0, len(ids))
	for _, id := range ids {
		p := people[id]
		if !filter.Match(p.Name(), id) {
			continue
		}
		s, err := school.NewStudent(p.Name(), p.Age(), p.Email(), id)
		if err != nil {
			return nil, errors.Wrapf(err, "reading student %s", id)
		}
		students = append(students, s)
	}
	school.SortStudents(students, ordering)
	return students, nil
}

func (repo *schoolRepository) UpdateStudent(ctx context.Context, s *school.Student) error {
	return repo.updatePerson(ctx, school.KindStudent, s.StudentID(), s.Person)
}

func (repo *schoolRepository) DeleteStudent(ctx context.Context, id string) error {
	courseIDs, err := repo.RegisteredCourseIDs(ctx, id)
	if err != nil {
		return err
	}
	pipe := repo.client.TxPipeline()
	if err = repo.deletePerson(ctx, school.KindStudent, id, pipe); err != nil {
		return err
	}
	for _, courseID := range courseIDs {
		pipe.ZRem(ctx, repo.key(school.KindCourse, courseID, "students"), id)
		pipe.ZRem(ctx, repo.key("enrollments"), courseID+pairSep+id)
	}
	pipe.Del(ctx, repo.key(school.KindStudent, id, "courses"))
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "deleting student")
}

// Instructors

func (repo *schoolRepository) InsertInstructor(ctx context.Context, i *school.Instructor) error {
	return repo.insertPerson(ctx, school.KindInstructor, i.InstructorID(), i.Person)
}

func (repo *schoolRepository) GetInstructor(ctx context.Context, id string) (*school.Instructor, error) {
	p, err := repo.getPerson(ctx, school.KindInstructor, id)
	if err != nil {
		return nil, err
	}
	return school.NewInstructor(p.Name(), p.Age(), p.Email(), id)
}

func (repo *schoolRepository) QueryInstructors(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Instructor, error) {
	ids, people, err := repo.queryPeople(ctx, school.KindInstructor)
	if err != nil {
		return nil, err
	}
	instructors := make([]*school.Instructor, 0, len(ids))
	for _, id := range ids {
		p := people[id]
		if !filter.Match(p.Name(), id) {
			continue
		}
		i, err := school.NewInstructor(p.Name(), p.Age(), p.Email(), id)
		if err != nil {
			return nil, errors.Wrapf(err, "reading instructor %s", id)
		}
		instructors = append(instructors, i)
	}
	school.SortInstructors(instructors, ordering)
	return instructors, nil
}

func (repo *schoolRepository) UpdateInstructor(ctx context.Context, i *school.Instructor) error {
	return repo.updatePerson(ctx, school.KindInstructor, i.InstructorID(), i.Person)
}

// DeleteInstructor leaves the instructor's courses without instructor.
func (repo *schoolRepository) DeleteInstructor(ctx context.Context, id string) error {
	courseIDs, err := repo.AssignedCourseIDs(ctx, id)
	if err != nil {
		return err
	}
	pipe := repo.client.TxPipeline()
	if err = repo.deletePerson(ctx, school.KindInstructor, id, pipe); err != nil {
		return err
	}
	for _, courseID := range courseIDs {
		pipe.HSet(ctx, repo.key(school.KindCourse, courseID), "instructor_id", "")
	}
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "deleting instructor")
}

// Courses

func (repo *schoolRepository) checkCourseInstructor(ctx context.Context, c *school.Course) error {
	if !c.HasInstructor() {
		return nil
	}
	return repo.mustExist(ctx, school.KindInstructor, c.InstructorID())
}

func (repo *schoolRepository) InsertCourse(ctx context.Context, c *school.Course) error {
	found, err := repo.exists(ctx, school.KindCourse, c.CourseID())
	if err != nil {
		return err
	}
	if found {
		return core.NewUniquenessError(school.KindCourse, "course_id", c.CourseID())
	}
	if err = repo.checkCourseInstructor(ctx, c); err != nil {
		return err
	}
	seq, err := repo.next(ctx)
	if err != nil {
		return err
	}

	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, repo.key(school.KindCourse, c.CourseID()), "name", c.CourseName(), "instructor_id", c.InstructorID())
		pipe.ZAdd(ctx, repo.key(school.KindCourse+"s"), redis.Z{Score: seq, Member: c.CourseID()})
		return nil
	})
	return errors.Wrap(err, "inserting course")
}

func courseFromHash(id string, fields map[string]string) (*school.Course, error) {
	return school.NewCourseRef(id, fields["name"], fields["instructor_id"])
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id string) (*school.Course, error) {
	fields, err := repo.client.HGetAll(ctx, repo.key(school.KindCourse, id)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "getting course")
	}
	if len(fields) == 0 {
		return nil, core.NewNotFoundError(school.KindCourse, id)
	}
	return courseFromHash(id, fields)
}

func (repo *schoolRepository) allCourses(ctx context.Context) ([]*school.Course, error) {
	ids, err := repo.ids(ctx, repo.key(school.KindCourse+"s"))
	if err != nil {
		return nil, err
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = repo.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for idx, id := range ids {
			cmds[idx] = pipe.HGetAll(ctx, repo.key(school.KindCourse, id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]*school.Course, 0, len(ids))
	for idx, id := range ids {
		c, err := courseFromHash(id, cmds[idx].Val())
		if err != nil {
			return nil, errors.Wrapf(err, "reading course %s", id)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, filter *school.QueryFilter, ordering []core.DBOrdering) ([]*school.Course, error) {
	all, err := repo.allCourses(ctx)
	if err != nil {
		return nil, err
	}
	courses := make([]*school.Course, 0, len(all))
	for _, c := range all {
		if filter.Match(c.CourseName(), c.CourseID()) {
			courses = append(courses, c)
		}
	}
	school.SortCourses(courses, ordering)
	return courses, nil
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c *school.Course) error {
	if err := repo.mustExist(ctx, school.KindCourse, c.CourseID()); err != nil {
		return err
	}
	if err := repo.checkCourseInstructor(ctx, c); err != nil {
		return err
	}
	err := repo.client.HSet(ctx, repo.key(school.KindCourse, c.CourseID()), "name", c.CourseName(), "instructor_id", c.InstructorID()).Err()
	return errors.Wrap(err, "updating course")
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id string) error {
	if err := repo.mustExist(ctx, school.KindCourse, id); err != nil {
		return err
	}
	studentIDs, err := repo.EnrolledStudentIDs(ctx, id)
	if err != nil {
		return err
	}
	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, repo.key(school.KindCourse, id), repo.key(school.KindCourse, id, "students"))
		pipe.ZRem(ctx, repo.key(school.KindCourse+"s"), id)
		for _, studentID := range studentIDs {
			pipe.ZRem(ctx, repo.key(school.KindStudent, studentID, "courses"), id)
			pipe.ZRem(ctx, repo.key("enrollments"), id+pairSep+studentID)
		}
		return nil
	})
	return errors.Wrap(err, "deleting course")
}

// Enrollments

func (repo *schoolRepository) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	if err := repo.mustExist(ctx, school.KindCourse, courseID); err != nil {
		return false, err
	}
	if err := repo.mustExist(ctx, school.KindStudent, studentID); err != nil {
		return false, err
	}
	seq, err := repo.next(ctx)
	if err != nil {
		return false, err
	}

	added, err := repo.client.ZAddNX(ctx, repo.key("enrollments"), redis.Z{Score: seq, Member: courseID + pairSep + studentID}).Result()
	if err != nil {
		return false, errors.Wrap(err, "inserting enrollment")
	}
	if added == 0 {
		return false, nil
	}
	_, err = repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, repo.key(school.KindCourse, courseID, "students"), redis.Z{Score: seq, Member: studentID})
		pipe.ZAdd(ctx, repo.key(school.KindStudent, studentID, "courses"), redis.Z{Score: seq, Member: courseID})
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "inserting enrollment")
	}
	return true, nil
}

func (repo *schoolRepository) QueryEnrollments(ctx context.Context) ([]school.Enrollment, error) {
	pairs, err := repo.ids(ctx, repo.key("enrollments"))
	if err != nil {
		return nil, err
	}
	enrollments := make([]school.Enrollment, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, pairSep, 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("malformed enrollment %q", pair)
		}
		enrollments = append(enrollments, school.Enrollment{CourseID: parts[0], StudentID: parts[1]})
	}
	return enrollments, nil
}

func (repo *schoolRepository) EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	return repo.ids(ctx, repo.key(school.KindCourse, courseID, "students"))
}

func (repo *schoolRepository) RegisteredCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	return repo.ids(ctx, repo.key(school.KindStudent, studentID, "courses"))
}

func (repo *schoolRepository) AssignedCourseIDs(ctx context.Context, instructorID string) ([]string, error) {
	courses, err := repo.allCourses(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for _, c := range courses {
		if c.InstructorID() == instructorID {
			ids = append(ids, c.CourseID())
		}
	}
	return ids, nil
}
