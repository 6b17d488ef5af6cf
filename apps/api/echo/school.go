package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core/school"
)

type schoolApi struct {
	svc *school.Service
}

type (
	EnrollRequest struct {
		StudentID string `json:"student_id"`
	}

	AssignRequest struct {
		InstructorID string `json:"instructor_id"`
	}

	OutcomeResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
)

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent)
	sg.GET("/:id", api.retrieveStudent)
	sg.PATCH("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
	sg.GET("/:id/courses", api.registeredCourses)

	ig := g.Group("/instructors")
	ig.GET("", api.queryInstructors)
	ig.POST("", api.createInstructor)
	ig.GET("/:id", api.retrieveInstructor)
	ig.PATCH("/:id", api.updateInstructor)
	ig.DELETE("/:id", api.destroyInstructor)
	ig.GET("/:id/courses", api.assignedCourses)

	cg := g.Group("/courses")
	cg.GET("", api.queryCourses)
	cg.POST("", api.createCourse)
	cg.GET("/:id", api.retrieveCourse)
	cg.PATCH("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)
	cg.GET("/:id/students", api.enrolledStudents)
	cg.POST("/:id/students", api.enroll)
	cg.PUT("/:id/instructor", api.assign)
}

func outcomeResponse(ctx echo.Context, out school.Outcome) error {
	code := http.StatusOK
	if out.Status == school.StatusAdded {
		code = http.StatusCreated
	}
	return ctx.JSON(code, OutcomeResponse{Status: out.Status.String(), Message: out.Message})
}

// Students

func (api *schoolApi) studentsResponse(ctx echo.Context, students ...*school.Student) ([]map[string]interface{}, error) {
	assoc, err := api.svc.Associations(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "reading associations")
	}
	data := make([]map[string]interface{}, 0, len(students))
	for _, s := range students {
		data = append(data, s.ToMap(assoc))
	}
	return data, nil
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx, school.PersonOrderFields...)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), bindFilter(ctx), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	data, err := api.studentsResponse(ctx, students...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudentInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudentInput")
	}
	s, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return api.student(ctx, http.StatusCreated, s)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	s, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return api.student(ctx, http.StatusOK, s)
}

func (api *schoolApi) updateStudent(ctx echo.Context) error {
	var data school.UpdatePerson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePerson")
	}
	s, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return api.student(ctx, http.StatusOK, s)
}

func (api *schoolApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) registeredCourses(ctx echo.Context) error {
	courses, err := api.svc.RegisteredCourses(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting registered courses")
	}
	return api.courses(ctx, courses)
}

func (api *schoolApi) student(ctx echo.Context, code int, s *school.Student) error {
	data, err := api.studentsResponse(ctx, s)
	if err != nil {
		return err
	}
	return ctx.JSON(code, data[0])
}

// Instructors

func (api *schoolApi) instructorsResponse(ctx echo.Context, instructors ...*school.Instructor) ([]map[string]interface{}, error) {
	assoc, err := api.svc.Associations(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "reading associations")
	}
	data := make([]map[string]interface{}, 0, len(instructors))
	for _, i := range instructors {
		data = append(data, i.ToMap(assoc))
	}
	return data, nil
}

func (api *schoolApi) queryInstructors(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx, school.PersonOrderFields...)

	instructors, err := api.svc.QueryInstructors(ctx.Request().Context(), bindFilter(ctx), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying instructors")
	}
	data, err := api.instructorsResponse(ctx, instructors...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *schoolApi) createInstructor(ctx echo.Context) error {
	var data school.NewInstructorInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstructorInput")
	}
	i, err := api.svc.CreateInstructor(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating instructor")
	}
	return api.instructor(ctx, http.StatusCreated, i)
}

func (api *schoolApi) retrieveInstructor(ctx echo.Context) error {
	i, err := api.svc.GetInstructor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting instructor")
	}
	return api.instructor(ctx, http.StatusOK, i)
}

func (api *schoolApi) updateInstructor(ctx echo.Context) error {
	var data school.UpdatePerson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePerson")
	}
	i, err := api.svc.UpdateInstructor(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating instructor")
	}
	return api.instructor(ctx, http.StatusOK, i)
}

func (api *schoolApi) destroyInstructor(ctx echo.Context) error {
	if err := api.svc.DeleteInstructor(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting instructor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) assignedCourses(ctx echo.Context) error {
	courses, err := api.svc.AssignedCourses(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assigned courses")
	}
	return api.courses(ctx, courses)
}

func (api *schoolApi) instructor(ctx echo.Context, code int, i *school.Instructor) error {
	data, err := api.instructorsResponse(ctx, i)
	if err != nil {
		return err
	}
	return ctx.JSON(code, data[0])
}

// Courses

func (api *schoolApi) coursesResponse(ctx echo.Context, courses ...*school.Course) ([]map[string]interface{}, error) {
	assoc, err := api.svc.Associations(ctx.Request().Context())
	if err != nil {
		return nil, errors.Wrap(err, "reading associations")
	}
	data := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		data = append(data, c.ToMap(assoc))
	}
	return data, nil
}

func (api *schoolApi) courses(ctx echo.Context, courses []*school.Course) error {
	data, err := api.coursesResponse(ctx, courses...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *schoolApi) course(ctx echo.Context, code int, c *school.Course) error {
	data, err := api.coursesResponse(ctx, c)
	if err != nil {
		return err
	}
	return ctx.JSON(code, data[0])
}

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	var ord Ordering
	ord.Bind(ctx, school.CourseOrderFields...)

	courses, err := api.svc.QueryCourses(ctx.Request().Context(), bindFilter(ctx), ord.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return api.courses(ctx, courses)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	var data school.NewCourseInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourseInput")
	}
	c, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return api.course(ctx, http.StatusCreated, c)
}

func (api *schoolApi) retrieveCourse(ctx echo.Context) error {
	c, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return api.course(ctx, http.StatusOK, c)
}

func (api *schoolApi) updateCourse(ctx echo.Context) error {
	var data school.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	c, err := api.svc.UpdateCourse(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return api.course(ctx, http.StatusOK, c)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	if err := api.svc.DeleteCourse(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) enrolledStudents(ctx echo.Context) error {
	students, err := api.svc.EnrolledStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrolled students")
	}
	data, err := api.studentsResponse(ctx, students...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *schoolApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	out, err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return outcomeResponse(ctx, out)
}

func (api *schoolApi) assign(ctx echo.Context) error {
	var data AssignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	out, err := api.svc.AssignCourse(ctx.Request().Context(), data.InstructorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "assigning course")
	}
	return outcomeResponse(ctx, out)
}
