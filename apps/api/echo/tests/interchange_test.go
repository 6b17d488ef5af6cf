package tests

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kumbukumbu/services/interchange"
)

func TestExportAPI(t *testing.T) {
	server, svc := setup(t)

	reg, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	var doc bytes.Buffer
	require.NoError(t, interchange.ExportJSON(&doc, reg))

	runHTTPTests(t, server, []httpTest{
		{name: "json", method: http.MethodGet, path: "/v1/export/json", wantCode: http.StatusOK, wantData: doc.Bytes()},
		{name: "csv unknown kind", method: http.MethodGet, path: "/v1/export/csv?kind=janitor", wantCode: http.StatusBadRequest},
	})

	t.Run("csv", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/export/csv?kind=instructor")
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="school.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t,
			"ID,Name,Age,Email,Additional Info,Type\n"+
				"I1,Ada Lovelace,36,ada@example.com,Courses: C1,Instructor\n",
			rec.Body.String(),
		)
	})

	t.Run("xlsx", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/export/xlsx")
		server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		got, err := interchange.ImportXLSX(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, reg.ToDocument(), got.ToDocument())
	})
}

func TestImportAPI(t *testing.T) {
	server, svc := setup(t)

	reg, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	var doc bytes.Buffer
	require.NoError(t, interchange.ExportJSON(&doc, reg))

	newStudent := []byte(`{
		"students": [{"name": "Grace Hopper", "age": 40, "email": "grace@example.com", "student_id": "S3", "registered_courses": ["C1"]}],
		"instructors": [],
		"courses": []
	}`)

	runHTTPTests(t, server, []httpTest{
		{
			name:     "existing records",
			method:   http.MethodPost,
			path:     "/v1/import",
			body:     doc.Bytes(),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"instructor_id": "a instructor with this instructor_id already exists"}`),
		},
		{
			name:     "upsert",
			method:   http.MethodPost,
			path:     "/v1/import?upsert=true",
			body:     doc.Bytes(),
			wantCode: http.StatusOK,
			wantData: []byte(`{"created": 0, "updated": 5, "enrollments": 0}`),
		},
		{
			name:     "unresolved course",
			method:   http.MethodPost,
			path:     "/v1/import",
			body:     newStudent,
			wantCode: http.StatusBadRequest,
		},
		{name: "malformed", method: http.MethodPost, path: "/v1/import", body: []byte(`{"students": `), wantCode: http.StatusBadRequest},
	})

	t.Run("into an empty store", func(t *testing.T) {
		dst, dstSvc := setup(t)
		for _, id := range []string{"C1", "C2"} {
			require.NoError(t, dstSvc.DeleteCourse(context.Background(), id))
		}
		for _, id := range []string{"S1", "S2"} {
			require.NoError(t, dstSvc.DeleteStudent(context.Background(), id))
		}
		require.NoError(t, dstSvc.DeleteInstructor(context.Background(), "I1"))

		req, rec := newRequest(http.MethodPost, "/v1/import", doc.Bytes())
		dst.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"created": 5, "updated": 0, "enrollments": 3}`)}, rec)

		got, err := dstSvc.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, reg.ToDocument(), got.ToDocument())
	})
}
