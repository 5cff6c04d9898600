package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jsphweid/stemviz/model"
)

var ErrJobNotFound = errors.New("Job not found")

// JobStore keeps the jobs the server has converted so downloads can be
// validated against them.
type JobStore interface {
	Save(ctx context.Context, job model.Job) error
	Get(ctx context.Context, id string) (model.Job, error)
}
