package tests

import (
	"net/http"
	"testing"
)

type student struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Email     string   `json:"email"`
	StudentID string   `json:"student_id"`
	Courses   []string `json:"registered_courses"`
}

type instructor struct {
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Email        string   `json:"email"`
	InstructorID string   `json:"instructor_id"`
	Courses      []string `json:"assigned_courses"`
}

type course struct {
	CourseID     string   `json:"course_id"`
	CourseName   string   `json:"course_name"`
	InstructorID *string  `json:"instructor_id"`
	Students     []string `json:"enrolled_students"`
}

var (
	alan = student{Name: "Alan Turing", Age: 34, Email: "alan@example.com", StudentID: "S1", Courses: []string{"C1", "C2"}}
	kate = student{Name: "Kate Johnson", Age: 20, Email: "kate@example.com", StudentID: "S2", Courses: []string{"C1"}}
	ada  = instructor{Name: "Ada Lovelace", Age: 36, Email: "ada@example.com", InstructorID: "I1", Courses: []string{"C1"}}

	i1          = "I1"
	algorithms  = course{CourseID: "C1", CourseName: "Algorithms", InstructorID: &i1, Students: []string{"S1", "S2"}}
	programming = course{CourseID: "C2", CourseName: "Programming", Students: []string{"S1"}}
)

func TestStudentsAPI(t *testing.T) {
	server, _ := setup(t)

	grace := student{Name: "Grace Hopper", Age: 40, Email: "grace@example.com", StudentID: "S3", Courses: []string{}}
	kateBell := kate
	kateBell.Name, kateBell.Age = "Kate Bell", 21

	runHTTPTests(t, server, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/students", wantCode: http.StatusOK, wantData: marchallObj(t, []student{alan, kate})},
		{name: "search", method: http.MethodGet, path: "/v1/students?search=JOHN", wantCode: http.StatusOK, wantData: marchallObj(t, []student{kate})},
		{name: "search nothing", method: http.MethodGet, path: "/v1/students?search=%25", wantCode: http.StatusOK, wantData: []byte("[]")},
		{name: "ordering", method: http.MethodGet, path: "/v1/students?ordering=age", wantCode: http.StatusOK, wantData: marchallObj(t, []student{kate, alan})},
		{name: "retrieve", method: http.MethodGet, path: "/v1/students/S1", wantCode: http.StatusOK, wantData: marchallObj(t, alan)},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/v1/students/S404",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: `student "S404" not found`}),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"name": " Grace Hopper ", "age": 40, "email": "GRACE@example.com", "student_id": "S3"}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, grace),
		},
		{
			name:     "create invalid",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"name": "R2D2", "age": 3, "email": "r2@example.com", "student_id": "S4"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name": "Name must contain only letters"}`),
		},
		{
			name:     "create negative age",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"name": "Young", "age": -1, "email": "young@example.com", "student_id": "S4"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"age": "Age cannot be negative"}`),
		},
		{
			name:     "create duplicate id",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"name": "Alan", "age": 3, "email": "other@example.com", "student_id": "S1"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"student_id": "a student with this student_id already exists"}`),
		},
		{
			name:     "create malformed",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update",
			method:   http.MethodPatch,
			path:     "/v1/students/S2",
			body:     []byte(`{"name": "Kate Bell", "age": 21}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, kateBell),
		},
		{
			name:     "update taken email",
			method:   http.MethodPatch,
			path:     "/v1/students/S2",
			body:     []byte(`{"email": "alan@example.com"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "a student with this email already exists"}`),
		},
		{
			name:     "registered courses",
			method:   http.MethodGet,
			path:     "/v1/students/S1/courses",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []course{algorithms, programming}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/students/S1", wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/v1/students/S1", wantCode: http.StatusNotFound},
		{
			name:     "courses after delete",
			method:   http.MethodGet,
			path:     "/v1/courses/C2",
			wantCode: http.StatusOK,
			wantData: []byte(`{"course_id": "C2", "course_name": "Programming", "instructor_id": null, "enrolled_students": []}`),
		},
	})
}

func TestInstructorsAPI(t *testing.T) {
	server, _ := setup(t)

	runHTTPTests(t, server, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/instructors", wantCode: http.StatusOK, wantData: marchallObj(t, []instructor{ada})},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/instructors",
			body:     []byte(`{"name": "Edsger Dijkstra", "age": 60, "email": "ewd@example.com", "instructor_id": "I2"}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, instructor{Name: "Edsger Dijkstra", Age: 60, Email: "ewd@example.com", InstructorID: "I2", Courses: []string{}}),
		},
		{
			name:     "create invalid email",
			method:   http.MethodPost,
			path:     "/v1/instructors",
			body:     []byte(`{"name": "Edsger", "age": 60, "email": "ewd", "instructor_id": "I3"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "Invalid email format"}`),
		},
		{
			name:     "update",
			method:   http.MethodPatch,
			path:     "/v1/instructors/I2",
			body:     []byte(`{"email": "edsger@example.com"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, instructor{Name: "Edsger Dijkstra", Age: 60, Email: "edsger@example.com", InstructorID: "I2", Courses: []string{}}),
		},
		{
			name:     "assign",
			method:   http.MethodPut,
			path:     "/v1/courses/C2/instructor",
			body:     []byte(`{"instructor_id": "I2"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"status": "added", "message": "Course Programming has been assigned"}`),
		},
		{
			name:     "assign again",
			method:   http.MethodPut,
			path:     "/v1/courses/C2/instructor",
			body:     []byte(`{"instructor_id": "I2"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"status": "already present", "message": "Course Programming is already assigned"}`),
		},
		{
			name:     "assign unknown instructor",
			method:   http.MethodPut,
			path:     "/v1/courses/C2/instructor",
			body:     []byte(`{"instructor_id": "I404"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: `instructor "I404" not found`}),
		},
		{
			name:     "assigned courses",
			method:   http.MethodGet,
			path:     "/v1/instructors/I2/courses",
			wantCode: http.StatusOK,
			wantData: []byte(`[{"course_id": "C2", "course_name": "Programming", "instructor_id": "I2", "enrolled_students": ["S1"]}]`),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/instructors/I1", wantCode: http.StatusNoContent},
		{
			name:     "course left without instructor",
			method:   http.MethodGet,
			path:     "/v1/courses/C1",
			wantCode: http.StatusOK,
			wantData: []byte(`{"course_id": "C1", "course_name": "Algorithms", "instructor_id": null, "enrolled_students": ["S1", "S2"]}`),
		},
	})
}

func TestCoursesAPI(t *testing.T) {
	server, _ := setup(t)

	runHTTPTests(t, server, []httpTest{
		{name: "list", method: http.MethodGet, path: "/v1/courses", wantCode: http.StatusOK, wantData: marchallObj(t, []course{algorithms, programming})},
		{name: "ordering", method: http.MethodGet, path: "/v1/courses?ordering=-name", wantCode: http.StatusOK, wantData: marchallObj(t, []course{programming, algorithms})},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"course_id": "C3", "course_name": "Logic", "instructor_id": "I1"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"course_id": "C3", "course_name": "Logic", "instructor_id": "I1", "enrolled_students": []}`),
		},
		{
			name:     "create duplicate",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"course_id": "C3", "course_name": "Logic"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"course_id": "a course with this course_id already exists"}`),
		},
		{
			name:     "create without name",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"course_id": "C4", "course_name": " "}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update without instructor",
			method:   http.MethodPatch,
			path:     "/v1/courses/C3",
			body:     []byte(`{"course_name": "Formal Logic", "instructor_id": ""}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"course_id": "C3", "course_name": "Formal Logic", "instructor_id": null, "enrolled_students": []}`),
		},
		{
			name:     "enroll",
			method:   http.MethodPost,
			path:     "/v1/courses/C3/students",
			body:     []byte(`{"student_id": "S2"}`),
			wantCode: http.StatusCreated,
			wantData: []byte(`{"status": "added", "message": "Student Kate Johnson has been enrolled"}`),
		},
		{
			name:     "enroll again",
			method:   http.MethodPost,
			path:     "/v1/courses/C3/students",
			body:     []byte(`{"student_id": "S2"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"status": "already present", "message": "Student Kate Johnson is already enrolled"}`),
		},
		{
			name:     "enroll in unknown course",
			method:   http.MethodPost,
			path:     "/v1/courses/C404/students",
			body:     []byte(`{"student_id": "S2"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: `course "C404" not found`}),
		},
		{
			name:     "enrolled students",
			method:   http.MethodGet,
			path:     "/v1/courses/C1/students",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []student{alan, {Name: "Kate Johnson", Age: 20, Email: "kate@example.com", StudentID: "S2", Courses: []string{"C1", "C3"}}}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/courses/C1", wantCode: http.StatusNoContent},
		{
			name:     "student after delete",
			method:   http.MethodGet,
			path:     "/v1/students/S2",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, student{Name: "Kate Johnson", Age: 20, Email: "kate@example.com", StudentID: "S2", Courses: []string{"C3"}}),
		},
	})
}
