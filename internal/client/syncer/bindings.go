package syncer

import (
	"context"

	"github.com/dmitrijs2005/hydrotrack/internal/client/prefs"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
)

// binding connects a remote record field to the local preference key of
// the same name.
type binding struct {
	field  string
	assign func(raw string) (prefs.Assignment, error)
	read   func(ctx context.Context, s *prefs.Store, ns prefs.Namespace) (string, error)
}

func bind[T any](k prefs.Key[T]) binding {
	return binding{
		field: k.Name(),
		assign: func(raw string) (prefs.Assignment, error) {
			v, err := k.Decode(raw)
			if err != nil {
				return prefs.Assignment{}, err
			}
			return k.To(v), nil
		},
		read: func(ctx context.Context, s *prefs.Store, ns prefs.Namespace) (string, error) {
			v, err := prefs.Get(ctx, s, ns, k)
			if err != nil {
				return "", err
			}
			return k.Encode(v), nil
		},
	}
}

var bindings = []binding{
	bind(prefs.KeyDailyGoalMl),
	bind(prefs.KeyDailyConsumptionMl),
	bind(prefs.KeyLastConsumptionDate),
	bind(prefs.KeyUserName),
	bind(prefs.KeyUserEmail),
	bind(prefs.KeyUserPhone),
}

func init() {
	for _, b := range bindings {
		if !pb.IsRecordField(b.field) {
			panic("syncer: preference key " + b.field + " is not a record field")
		}
	}
}
