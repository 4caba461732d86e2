package api

import (
	"context"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// API is the outward face of the dispatcher. Submissions never return an
// error: every outcome, including rejection, is a SubmitResult with a
// stable return code. Errors are reserved for infrastructure faults on the
// query path.
type API interface {
	SubmitImagine(ctx context.Context, req *structs.ImagineRequest) *structs.SubmitResult
	SubmitChange(ctx context.Context, req *structs.ChangeRequest) *structs.SubmitResult
	SubmitSimpleChange(ctx context.Context, req *structs.SimpleChangeRequest) *structs.SubmitResult
	SubmitDescribe(ctx context.Context, req *structs.DescribeRequest) *structs.SubmitResult
	SubmitBlend(ctx context.Context, req *structs.BlendRequest) *structs.SubmitResult
	SubmitShorten(ctx context.Context, req *structs.ShortenRequest) *structs.SubmitResult

	Task(ctx context.Context, id string) (*structs.Task, error)
	Tasks(ctx context.Context, ids []string) ([]*structs.Task, error)
	ListTasks(ctx context.Context, q *structs.TaskQuery) ([]*structs.Task, error)

	Accounts() []*structs.Account
	Account(id string) *structs.Account
	SetAccountEnabled(id string, enabled bool) error

	Close()
}
