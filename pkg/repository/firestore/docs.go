package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// getDoc decodes the document into a new T. A missing document is reported
// as ErrNotFound wrapped with kind and id.
func getDoc[T any](ctx context.Context, ref *firestore.DocumentRef, kind string) (*T, error) {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, kind+" not found", goerr.V("id", ref.ID))
		}
		return nil, goerr.Wrap(err, "failed to get "+kind, goerr.V("id", ref.ID))
	}

	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, goerr.Wrap(err, "failed to decode "+kind, goerr.V("id", ref.ID))
	}
	return &v, nil
}

// existDoc returns ErrNotFound (wrapped) when the document is missing
func existDoc(ctx context.Context, ref *firestore.DocumentRef, kind string) error {
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, kind+" not found", goerr.V("id", ref.ID))
		}
		return goerr.Wrap(err, "failed to check "+kind+" existence", goerr.V("id", ref.ID))
	}
	return nil
}

// queryDocs decodes every document matched by q
func queryDocs[T any](ctx context.Context, q firestore.Query, kind string) ([]*T, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	results := make([]*T, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate "+kind)
		}

		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, goerr.Wrap(err, "failed to decode "+kind, goerr.V("doc_id", snap.Ref.ID))
		}
		results = append(results, &v)
	}
	return results, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
