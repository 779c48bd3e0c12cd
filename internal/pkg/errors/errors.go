package errors

import "errors"

var (
	ErrInvalid               = errors.New("invalid")
	ErrNotFound              = errors.New("not found")
	ErrInternal              = errors.New("internal")
	ErrIndexLoad             = errors.New("index load failed")
	ErrQueryAnalysis         = errors.New("query analysis failed")
	ErrThresholdUnderflow    = errors.New("no document above threshold")
	ErrGenerativeTimeout     = errors.New("generative analysis timed out")
	ErrGenerativeUnavailable = errors.New("generative analysis unavailable")
	ErrCache                 = errors.New("cache failure")
	ErrStrategyUnhealthy     = errors.New("search strategy unhealthy")
)

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsIndexLoad(err error) bool {
	return errors.Is(err, ErrIndexLoad)
}
