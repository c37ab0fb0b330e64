package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

var requestDataKey = ctxKey{}

// RequestData is the per-request identity carried through the context after
// the auth middleware has verified the access token. OrgID and Role make
// tenant scoping explicit instead of each layer re-reading ambient session
// state.
type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       uuid.UUID
	OrgID        uuid.UUID
	Role         string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}
