package httpadapter

import (
    "net/http"

    "github.com/go-chi/chi/v5"
    "github.com/oapi-codegen/runtime"
)

type importParams struct {
    DryRun *bool
}

type runsParams struct {
    Limit *int
}

func bindImportParams(r *http.Request) (importParams, error) {
    var p importParams
    err := runtime.BindQueryParameter("form", true, false, "dryRun", r.URL.Query(), &p.DryRun)
    return p, err
}

func bindRunsParams(r *http.Request) (runsParams, error) {
    var p runsParams
    err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &p.Limit)
    return p, err
}

func bindOrderNo(r *http.Request) (string, error) {
    var orderNo string
    err := runtime.BindStyledParameterWithOptions("simple", "orderNo", chi.URLParam(r, "orderNo"), &orderNo,
        runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
    return orderNo, err
}
