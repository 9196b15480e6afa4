package configstore

import "errors"

var (
	// ErrInvalidInput covers empty arguments, unknown sections or options, and
	// files that cannot be read on the lookup path.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEnvFail is returned when SetValue cannot parse or persist the file.
	ErrEnvFail = errors.New("environment failure")
)

// ResultCode is the legacy process-wide result enumeration.
type ResultCode int

const (
	Success ResultCode = iota
	InvalidInput
	EnvFail
)

func (c ResultCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case InvalidInput:
		return "INVALID_INPUT"
	case EnvFail:
		return "ENV_FAIL"
	default:
		return "UNKNOWN"
	}
}

// CodeOf maps an error returned by this package to its ResultCode. Errors from
// outside the package are reported as EnvFail.
func CodeOf(err error) ResultCode {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidInput):
		return InvalidInput
	default:
		return EnvFail
	}
}
