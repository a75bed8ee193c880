package patch

import (
	"errors"
	"fmt"

	"github.com/gogpu/pxdoc/node"
)

// BatchError reports the patch that failed inside ApplyAll.
type BatchError struct {
	Index int   // position of the failing patch
	Kind  Kind  // kind of the failing patch
	Err   error // cause
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("patch: batch failed at %d (%v): %v", e.Index, e.Kind, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// ApplyAll applies ps in order and returns their inverses, where
// inverses[i] undoes ps[i]. Undoing the whole batch means applying the
// inverses in reverse order.
//
// The batch is atomic: when the patch at index k fails, the inverses of
// patches 0..k-1 are applied in reverse and the tree is left as it was.
// The error is a *BatchError.
func (e *Engine) ApplyAll(t *node.Tree, ps []Patch) ([]Patch, error) {
	inverses := make([]Patch, 0, len(ps))
	for i, p := range ps {
		inv, err := e.Apply(t, p)
		if err != nil {
			if rerr := e.rollback(t, inverses); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return nil, &BatchError{Index: i, Kind: kindOf(p), Err: err}
		}
		inverses = append(inverses, inv)
	}
	return inverses, nil
}

func (e *Engine) rollback(t *node.Tree, inverses []Patch) error {
	var errs []error
	for i := len(inverses) - 1; i >= 0; i-- {
		if _, err := e.Apply(t, inverses[i]); err != nil {
			errs = append(errs, fmt.Errorf("rollback %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func kindOf(p Patch) Kind {
	if p == nil {
		return kindCount
	}
	return p.Kind()
}
