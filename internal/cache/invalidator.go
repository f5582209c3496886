package cache

import (
	"context"
	"net/http"
	"strings"

	"jobportal/internal/common"
)

// JobInvalidator maps job writes onto cache invalidations. Callers invoke it
// only after the write has been persisted.
type JobInvalidator struct {
	layer    *Layer
	basePath string
}

// NewJobInvalidator takes the URL path under which job details are served,
// e.g. "/api/jobs".
func NewJobInvalidator(layer *Layer, basePath string) *JobInvalidator {
	return &JobInvalidator{layer: layer, basePath: strings.TrimRight(basePath, "/")}
}

// DetailTarget is the request target of a job's detail endpoint.
func (i *JobInvalidator) DetailTarget(id common.UUID) string {
	return i.basePath + "/" + id.String()
}

// DetailRequestTarget maps every spelling of a job detail request (id case,
// urn prefix, trailing slash) onto DetailTarget plus the raw query, so
// JobChanged reaches the entry. Requests whose id does not parse bypass the
// cache.
func (i *JobInvalidator) DetailRequestTarget(r *http.Request) (string, bool) {
	rest, ok := strings.CutPrefix(r.URL.Path, i.basePath+"/")
	if !ok {
		return "", false
	}
	id, err := common.ParseUUID(strings.Trim(rest, "/"))
	if err != nil {
		return "", false
	}
	target := i.DetailTarget(id)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target, true
}

func (i *JobInvalidator) JobCreated(ctx context.Context) {
	i.layer.InvalidateFamily(ctx, PrefixJobsList)
}

func (i *JobInvalidator) JobChanged(ctx context.Context, id common.UUID) {
	i.layer.InvalidateTarget(ctx, PrefixJobsDetail, i.DetailTarget(id))
	i.layer.InvalidateFamily(ctx, PrefixJobsList)
}

func (i *JobInvalidator) JobDeleted(ctx context.Context, id common.UUID) {
	i.JobChanged(ctx, id)
}
