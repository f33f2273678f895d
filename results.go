package pushz

import (
	"fmt"
)

// Results holds the outputs of one compiled pipeline.
//
// Anonymous outputs are kept in declaration order and read with Value
// (when there is exactly one) or Return. Named outputs are read with Get.
// The typed helpers ValueOf, ReturnOf and Named convert the stored values.
type Results struct {
	named   map[Name]resolver
	names   []Name
	returns []resolver
}

func newResults(outlets []outlet) *Results {
	r := &Results{named: make(map[Name]resolver)}
	for _, o := range outlets {
		if o.anonymous {
			r.returns = append(r.returns, o.result)
			continue
		}
		r.named[o.name] = o.result
		r.names = append(r.names, o.name)
	}
	return r
}

// Value returns the result of the single anonymous output. It fails with
// ErrNotSingleValue if the pipeline has named outputs or does not have
// exactly one anonymous output.
func (r *Results) Value() (any, error) {
	if len(r.returns) != 1 || len(r.named) != 0 {
		return nil, fmt.Errorf("%w: %d anonymous, %d named", ErrNotSingleValue, len(r.returns), len(r.named))
	}
	return r.returns[0].settled()
}

// Return returns the i-th anonymous output in declaration order.
func (r *Results) Return(i int) (any, error) {
	if i < 0 || i >= len(r.returns) {
		return nil, fmt.Errorf("%w: %s[%d]", ErrUnknownOutput, ReturnName, i)
	}
	return r.returns[i].settled()
}

// NumReturns reports how many anonymous outputs the pipeline has.
func (r *Results) NumReturns() int {
	return len(r.returns)
}

// Get returns the result of the named output.
func (r *Results) Get(name Name) (any, error) {
	f, ok := r.named[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
	}
	return f.settled()
}

// Names returns the named outputs in registration order.
func (r *Results) Names() []Name {
	names := make([]Name, len(r.names))
	copy(names, r.names)
	return names
}

// Len reports the total number of outputs, named and anonymous.
func (r *Results) Len() int {
	return len(r.returns) + len(r.names)
}

// ValueOf returns the single anonymous output as an R.
func ValueOf[R any](r *Results) (R, error) {
	v, err := r.Value()
	return convert[R](ReturnName, v, err)
}

// ReturnOf returns the i-th anonymous output as an R.
func ReturnOf[R any](r *Results, i int) (R, error) {
	v, err := r.Return(i)
	return convert[R](ReturnName, v, err)
}

// Named returns the named output as an R.
func Named[R any](r *Results, name Name) (R, error) {
	v, err := r.Get(name)
	return convert[R](name, v, err)
}

// convert keeps the stored value when the output resolved with an error, so
// a partial accumulation is still visible to the caller.
func convert[R any](name Name, v any, err error) (R, error) {
	var zero R
	if v == nil {
		return zero, err
	}
	out, ok := v.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrResultType, name, v)
	}
	return out, err
}
