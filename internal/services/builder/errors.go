package builder

import "errors"

var ErrNoSubmitter = errors.New("no transaction submitter configured")
