package domain

// Outcome carries either a value or a classified error for one unit of work,
// so partial failures travel as data instead of aborting the caller.
type Outcome[T any] struct {
	Value T
	Err   error
}

func Ok[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value}
}

func Fail[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Code returns the classified error code, or "" on success.
func (o Outcome[T]) Code() ErrorCode {
	if o.Err == nil {
		return ""
	}
	if code, ok := CodeFrom(o.Err); ok {
		return code
	}
	return CodeInternal
}
