package echoapi

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kumbukumbu/core/school"
	"github.com/trezcool/kumbukumbu/services/interchange"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type interchangeApi struct {
	svc *school.Service
}

type LoadResponse struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Enrollments int `json:"enrollments"`
}

func registerInterchangeAPI(g *echo.Group, svc *school.Service) {
	api := interchangeApi{svc: svc}

	eg := g.Group("/export")
	eg.GET("/json", api.exportJSON)
	eg.GET("/csv", api.exportCSV)
	eg.GET("/xlsx", api.exportXLSX)

	g.POST("/import", api.importJSON)
}

func (api *interchangeApi) export(ctx echo.Context, filename, contentType string, write func(*bytes.Buffer, *school.Registry) error) error {
	reg, err := api.svc.Snapshot(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "taking snapshot")
	}
	var buf bytes.Buffer
	if err = write(&buf, reg); err != nil {
		return errors.Wrapf(err, "exporting %s", filename)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (api *interchangeApi) exportJSON(ctx echo.Context) error {
	return api.export(ctx, "school.json", echo.MIMEApplicationJSONCharsetUTF8, func(buf *bytes.Buffer, reg *school.Registry) error {
		return interchange.ExportJSON(buf, reg)
	})
}

// exportCSV accepts a comma separated `kind` query param restricting the exported kinds.
func (api *interchangeApi) exportCSV(ctx echo.Context) error {
	var kinds []string
	if param := ctx.QueryParam("kind"); param != "" {
		for _, k := range strings.Split(param, ",") {
			kind, err := school.ParseKind(k)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
	}
	return api.export(ctx, "school.csv", "text/csv; charset=utf-8", func(buf *bytes.Buffer, reg *school.Registry) error {
		return interchange.ExportCSV(buf, reg, kinds...)
	})
}

func (api *interchangeApi) exportXLSX(ctx echo.Context) error {
	return api.export(ctx, "school.xlsx", mimeXLSX, func(buf *bytes.Buffer, reg *school.Registry) error {
		return interchange.ExportXLSX(buf, reg)
	})
}

// importJSON loads an exported JSON document; `?upsert=true` updates the existing records.
func (api *interchangeApi) importJSON(ctx echo.Context) error {
	reg, err := interchange.ImportJSON(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading document")
	}
	stats, err := api.svc.Load(ctx.Request().Context(), reg, bindUpsert(ctx))
	if err != nil {
		return errors.Wrap(err, "loading document")
	}
	return ctx.JSON(http.StatusOK, LoadResponse{Created: stats.Created, Updated: stats.Updated, Enrollments: stats.Enrollments})
}
